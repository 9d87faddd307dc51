package matching

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// checkPool verifies the invariants that must hold between operations.
func checkPool(t *rapid.T, pl *Pool, reach map[string]int) {
	seen := make(map[string]bool, pl.Len())
	for i := 0; i < pl.Len(); i++ {
		p := pl.At(i)
		if i > 0 && p.before(pl.At(i-1)) {
			t.Fatalf("pool out of order at %d: %+v", i, pl.Snapshot())
		}
		if seen[p.ID] {
			t.Fatalf("%s appears twice", p.ID)
		}
		seen[p.ID] = true

		if d := p.Adjusted - p.Rating; d > p.Reach || -d > p.Reach {
			t.Fatalf("%s adjusted %d outside rating %d ± reach %d", p.ID, p.Adjusted, p.Rating, p.Reach)
		}
		if p.Reach < reach[p.ID] {
			t.Fatalf("%s reach shrank from %d to %d", p.ID, reach[p.ID], p.Reach)
		}
		reach[p.ID] = p.Reach
	}
	if len(seen) != pl.Len() {
		t.Fatalf("id index out of sync with entries")
	}
}

func TestProperty_PoolInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.FairMMRThreshold = rapid.IntRange(0, 300).Draw(t, "threshold")
		cfg.WideningRate = rapid.IntRange(1, 2000).Draw(t, "rate")
		cfg.WideningPolicy = rapid.SampledFrom([]string{PolicyNeighbor, PolicyMedian}).Draw(t, "policy")

		tuner := NewTuner(cfg)
		engine := NewEngine(cfg.FairMMRThreshold)
		pl := NewPool()
		now := epoch
		reach := map[string]int{}
		matched := map[string]bool{}
		next := 0

		steps := rapid.IntRange(1, 80).Draw(t, "steps")
		for s := 0; s < steps; s++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0, 1:
				id := fmt.Sprintf("p%d", next)
				next++
				p := &Participant{ID: id, JoinedAt: now}
				p.Rating = rapid.IntRange(0, 3000).Draw(t, "rating")
				p.Adjusted = p.Rating
				if err := pl.Insert(p); err != nil {
					t.Fatalf("insert %s: %v", id, err)
				}
			case 2:
				if pl.Len() > 0 {
					i := rapid.IntRange(0, pl.Len()-1).Draw(t, "leave")
					id := pl.At(i).ID
					pl.Remove(id)
					delete(reach, id)
				}
			case 3:
				now = now.Add(time.Duration(rapid.IntRange(1, 2000).Draw(t, "elapsed")) * time.Millisecond)
				before := pl.Len()
				tuner.Adjust(pl, now)
				checkPool(t, pl, reach)
				matches := engine.Match(pl, now)
				if len(matches) > before/2 {
					t.Fatalf("%d matches from %d participants", len(matches), before)
				}
				for _, m := range matches {
					for _, id := range []string{m.ParticipantA, m.ParticipantB} {
						if matched[id] {
							t.Fatalf("%s matched twice", id)
						}
						matched[id] = true
						delete(reach, id)
					}
				}
				if pl.Len() != before-2*len(matches) {
					t.Fatalf("pool size %d after %d matches from %d", pl.Len(), len(matches), before)
				}
			}
			checkPool(t, pl, reach)
		}
	})
}

// Two participants who both keep waiting always end up matched.
func TestProperty_PairConverges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.FairMMRThreshold = rapid.IntRange(0, 300).Draw(t, "threshold")
		cfg.WideningPolicy = rapid.SampledFrom([]string{PolicyNeighbor, PolicyMedian}).Draw(t, "policy")

		tuner := NewTuner(cfg)
		engine := NewEngine(cfg.FairMMRThreshold)
		pl := NewPool()
		a := &Participant{ID: "a", JoinedAt: epoch, Rating: rapid.IntRange(0, 3000).Draw(t, "a")}
		b := &Participant{ID: "b", JoinedAt: epoch, Rating: rapid.IntRange(0, 3000).Draw(t, "b")}
		a.Adjusted, b.Adjusted = a.Rating, b.Rating
		_ = pl.Insert(a)
		_ = pl.Insert(b)

		now := epoch
		for i := 0; i < 1000; i++ {
			now = now.Add(cfg.MatchingInterval)
			tuner.Adjust(pl, now)
			if len(engine.Match(pl, now)) == 1 {
				return
			}
		}
		t.Fatalf("no match after 1000 ticks: %+v", pl.Snapshot())
	})
}
