package matching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/whisper/matchmaker/internal/metrics"
	"github.com/whisper/matchmaker/internal/registry"
)

// ErrUnknownParticipant is returned by Join when the registry cannot resolve
// the identifier.
var ErrUnknownParticipant = errors.New("matching: unknown participant")

// Service is the matchmaker. It owns the waiting pool and, while running,
// runs the Tuner and then the Engine on every tick, delivering matches to
// subscribed observers.
type Service struct {
	cfg      Config
	registry registry.Registry
	tuner    *Tuner
	engine   *Engine
	obs      publisher
	now      func() time.Time

	mu      sync.Mutex // guards everything below
	pool    *Pool
	running bool
	gen     uint64 // bumped on every Start so stale loops stand down
	cancel  context.CancelFunc

	tickMu sync.Mutex // ticks never overlap, even across a restart
}

// NewService creates a stopped matchmaker. A nil registry resolves nobody.
func NewService(cfg Config, reg registry.Registry) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = registry.Empty{}
	}
	return &Service{
		cfg:      cfg,
		registry: reg,
		tuner:    NewTuner(cfg),
		engine:   NewEngine(cfg.FairMMRThreshold),
		now:      time.Now,
		pool:     NewPool(),
	}, nil
}

// Start begins ticking with an empty pool. Calling Start on a running
// service re-arms it: the current loop is cancelled and waiting
// participants are dropped.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.cancel()
	}
	dropped := s.pool.Clear()
	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	gen := s.gen
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	metrics.PoolSize.Set(0)
	if dropped > 0 {
		log.Printf("[matcher] restart dropped %d waiting participants", dropped)
	}

	go s.matchLoop(ctx, gen)

	log.Printf("[matcher] service started (interval=%s widening_delay=%s threshold=%d)",
		s.cfg.MatchingInterval, s.cfg.SearchWideningDelay, s.cfg.FairMMRThreshold)
}

// Stop prevents any further tick from starting and discards the pool. A
// tick already in progress is allowed to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	dropped := s.pool.Clear()
	s.mu.Unlock()

	metrics.PoolSize.Set(0)
	log.Printf("[matcher] service stopped, dropped %d waiting participants", dropped)
}

// Running reports whether the service is ticking.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Subscribe registers o to receive every match created from now on.
func (s *Service) Subscribe(o Observer) {
	s.obs.subscribe(o)
}

// Join resolves id through the registry and adds the participant to the
// pool with its adjusted rating equal to its base rating. On failure the
// pool is left untouched.
func (s *Service) Join(ctx context.Context, id string) error {
	rec, err := s.registry.FindParticipant(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		metrics.JoinsTotal.WithLabelValues("unknown").Inc()
		return fmt.Errorf("%w: %w", ErrUnknownParticipant, err)
	}
	if err != nil {
		metrics.JoinsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("matching: resolve %s: %w", id, err)
	}

	p := &Participant{
		ID:       id,
		Name:     rec.Name,
		Rating:   rec.Rating,
		Adjusted: rec.Rating,
		JoinedAt: s.now(),
	}

	s.mu.Lock()
	err = s.pool.Insert(p)
	size := s.pool.Len()
	s.mu.Unlock()

	if err != nil {
		metrics.JoinsTotal.WithLabelValues("duplicate").Inc()
		return err
	}

	metrics.JoinsTotal.WithLabelValues("ok").Inc()
	metrics.PoolSize.Set(float64(size))
	s.logf("participant joined %s (%s) rating=%d (pool size: %d)", p.Name, p.ID, p.Rating, size)
	return nil
}

// Leave removes a waiting participant. It reports whether id was waiting.
func (s *Service) Leave(id string) bool {
	s.mu.Lock()
	ok := s.pool.Remove(id)
	size := s.pool.Len()
	s.mu.Unlock()

	if ok {
		metrics.PoolSize.Set(float64(size))
		s.logf("participant left %s (pool size: %d)", id, size)
	}
	return ok
}

// PoolSize returns the number of waiting participants.
func (s *Service) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Len()
}

// Snapshot returns a copy of the pool in order.
func (s *Service) Snapshot() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Snapshot()
}

// matchLoop ticks every MatchingInterval until ctx is cancelled. A slow tick
// delays the next one; ticks are never run concurrently.
func (s *Service) matchLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.cfg.MatchingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logf("match loop stopped")
			return
		case <-ticker.C:
			s.tick(gen)
		}
	}
}

// tick runs one tune-and-match pass for loop generation gen and delivers
// the resulting matches before returning.
func (s *Service) tick(gen uint64) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	matches, ok := s.pass(gen)
	if !ok {
		return
	}
	s.obs.publish(matches)
}

func (s *Service) pass(gen uint64) (matches []Match, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.gen != gen {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.TickPanics.Inc()
			log.Printf("[matcher] tick panic: %v", r)
			if !s.pool.sorted() {
				s.pool.repair()
			}
			matches, ok = nil, false
		}
	}()

	started := time.Now()
	now := s.now()

	s.tuner.Adjust(s.pool, now)
	if s.cfg.Verbose && s.pool.Len() > 0 {
		s.logPool()
	}
	matches = s.engine.Match(s.pool, now)

	metrics.TickDuration.Observe(time.Since(started).Seconds())
	metrics.PoolSize.Set(float64(s.pool.Len()))
	metrics.MatchesTotal.Add(float64(len(matches)))
	for _, m := range matches {
		s.logf("*** match found %s vs. %s (match id %s)", m.ParticipantA, m.ParticipantB, m.MatchID)
	}
	return matches, true
}

// logPool dumps the pool; s.mu must be held.
func (s *Service) logPool() {
	var b strings.Builder
	for i := 0; i < s.pool.Len(); i++ {
		p := s.pool.At(i)
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%d/%d", p.ID, p.Adjusted, p.Rating)
	}
	log.Printf("[matcher] pool [%s]", b.String())
}

func (s *Service) logf(format string, args ...any) {
	if s.cfg.Verbose {
		log.Printf("[matcher] "+format, args...)
	}
}
