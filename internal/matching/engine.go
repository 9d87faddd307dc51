package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/whisper/matchmaker/internal/metrics"
)

// Engine pairs adjacent participants in one left-to-right greedy pass.
type Engine struct {
	threshold int
	newID     func() string
}

// NewEngine creates an Engine pairing ratings at most threshold apart.
func NewEngine(threshold int) *Engine {
	return &Engine{threshold: threshold, newID: uuid.NewString}
}

// Match pairs each participant with the next one in pool order when their
// adjusted ratings are within the threshold, removes every paired
// participant in a single batch and returns the matches in creation order.
// A passed-over participant is not compared with anyone but its successor.
func (e *Engine) Match(pl *Pool, now time.Time) []Match {
	var (
		matches []Match
		paired  []int
	)

	for i := 0; i+1 < pl.Len(); {
		a, b := pl.At(i), pl.At(i+1)
		if b.Adjusted-a.Adjusted > e.threshold {
			i++
			continue
		}

		matches = append(matches, Match{
			MatchID:      e.newID(),
			ParticipantA: a.ID,
			ParticipantB: b.ID,
			CreatedAt:    now,
		})
		metrics.MatchWait.Observe(now.Sub(a.JoinedAt).Seconds())
		metrics.MatchWait.Observe(now.Sub(b.JoinedAt).Seconds())
		paired = append(paired, i, i+1)
		i += 2
	}

	pl.RemoveMany(paired)
	return matches
}
