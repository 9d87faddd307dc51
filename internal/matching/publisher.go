package matching

import (
	"log"
	"sync"

	"github.com/whisper/matchmaker/internal/metrics"
)

// Observer receives every match created while it is subscribed.
type Observer func(Match)

// publisher fans matches out to observers in registration order.
type publisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func (p *publisher) subscribe(o Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, o)
	p.mu.Unlock()
}

// publish delivers each match, in creation order, to every observer. A
// panicking observer is logged and skipped; the others still receive it.
func (p *publisher) publish(matches []Match) {
	if len(matches) == 0 {
		return
	}

	p.mu.RLock()
	observers := p.observers
	p.mu.RUnlock()

	for _, m := range matches {
		for _, o := range observers {
			deliver(o, m)
		}
	}
}

func deliver(o Observer, m Match) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TickPanics.Inc()
			log.Printf("[matcher] observer panic on match %s: %v", m.MatchID, r)
		}
	}()
	o(m)
}
