package matching

import (
	"time"
)

// Tuner widens the effective tolerance of participants who have waited past
// the grace period. The Engine always applies the same threshold; the Tuner
// instead pulls adjusted ratings of overdue participants toward a target.
//
// Per participant and tick:
//   - Reach (excess tolerance) is raised to rate × seconds overdue. It never
//     shrinks while the participant waits.
//   - Adjusted moves toward the target but stays within Rating ± Reach.
//   - An upward move is capped at ⌈gap/2⌉ and a downward move at ⌊gap/2⌋ of
//     the pre-tick gap to the adjacent participant on that side, so two
//     participants can meet but never cross within a tick.
type Tuner struct {
	delay     time.Duration
	rate      int
	policy    string
	threshold int
}

// NewTuner builds a Tuner from cfg.
func NewTuner(cfg Config) *Tuner {
	return &Tuner{
		delay:     cfg.SearchWideningDelay,
		rate:      cfg.WideningRate,
		policy:    cfg.WideningPolicy,
		threshold: cfg.FairMMRThreshold,
	}
}

// Reach returns the excess tolerance owed to a participant overdue by d.
func (t *Tuner) Reach(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Milliseconds() * int64(t.rate) / 1000)
}

// Adjust runs one widening step over the pool and returns how many adjusted
// ratings changed. The pool is sorted again before Adjust returns.
func (t *Tuner) Adjust(pl *Pool, now time.Time) int {
	n := pl.Len()
	if n == 0 {
		return 0
	}

	// All moves are computed against the pre-tick ratings.
	ratings := make([]int, n)
	for i := range ratings {
		ratings[i] = pl.At(i).Adjusted
	}
	median := (ratings[(n-1)/2] + ratings[n/2]) / 2

	next := make([]int, n)
	copy(next, ratings)
	for i := 0; i < n; i++ {
		p := pl.At(i)
		overdue := now.Sub(p.JoinedAt) - t.delay
		if overdue <= 0 {
			continue
		}
		if r := t.Reach(overdue); r > p.Reach {
			p.Reach = r
		}

		target, ok := t.target(ratings, i, median)
		if !ok {
			continue
		}
		next[i] = step(ratings, i, target, p)
	}

	moved := 0
	for i := 0; i < n; i++ {
		if next[i] != ratings[i] {
			pl.At(i).Adjusted = next[i]
			moved++
		}
	}
	if moved == 0 {
		return 0
	}

	// Moves never cross, so only ties can be out of join order.
	for i := 1; i < n; i++ {
		if pl.At(i).before(pl.At(i - 1)) {
			pl.Reorder(i)
		}
	}
	return moved
}

// target picks the rating participant i is pulled toward. Under the median
// policy a participant already at the median is pulled toward its closer
// neighbour instead, while that gap is still too wide to match.
func (t *Tuner) target(ratings []int, i, median int) (int, bool) {
	cur := ratings[i]
	if t.policy == PolicyMedian && median != cur {
		return median, true
	}

	n, ok := nearest(ratings, i)
	if !ok {
		return 0, false
	}
	if t.policy == PolicyMedian && abs(n-cur) <= t.threshold {
		return 0, false
	}
	return n, true
}

// nearest returns the adjusted rating of the closer adjacent participant,
// preferring the left one on ties.
func nearest(ratings []int, i int) (int, bool) {
	cur := ratings[i]
	hasLeft, hasRight := i > 0, i < len(ratings)-1
	switch {
	case hasLeft && hasRight:
		if cur-ratings[i-1] <= ratings[i+1]-cur {
			return ratings[i-1], true
		}
		return ratings[i+1], true
	case hasLeft:
		return ratings[i-1], true
	case hasRight:
		return ratings[i+1], true
	}
	return 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// step returns the new adjusted rating for participant i moving toward target.
func step(ratings []int, i, target int, p *Participant) int {
	cur := ratings[i]
	switch {
	case target > cur:
		limit := min(target, p.Rating+p.Reach)
		if i < len(ratings)-1 {
			limit = min(limit, cur+(ratings[i+1]-cur+1)/2)
		}
		return max(cur, limit)
	case target < cur:
		limit := max(target, p.Rating-p.Reach)
		if i > 0 {
			limit = max(limit, cur-(cur-ratings[i-1])/2)
		}
		return min(cur, limit)
	}
	return cur
}
