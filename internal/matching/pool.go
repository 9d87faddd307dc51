package matching

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrDuplicateParticipant is returned when an identifier is already waiting.
var ErrDuplicateParticipant = errors.New("matching: participant already waiting")

// Pool is the waiting pool: participants ordered ascending by adjusted
// rating, ties broken by join order. Pool is not safe for concurrent use;
// the Service serializes all access.
type Pool struct {
	entries []*Participant
	ids     map[string]*Participant
	nextSeq uint64
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{ids: make(map[string]*Participant)}
}

// Insert places p at its sorted position and stamps its join order.
func (pl *Pool) Insert(p *Participant) error {
	if _, ok := pl.ids[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
	}

	pl.nextSeq++
	p.seq = pl.nextSeq

	i := sort.Search(len(pl.entries), func(i int) bool {
		return p.before(pl.entries[i])
	})
	pl.entries = slices.Insert(pl.entries, i, p)
	pl.ids[p.ID] = p
	return nil
}

// Len returns the number of waiting participants.
func (pl *Pool) Len() int {
	return len(pl.entries)
}

// At returns the participant at position i.
func (pl *Pool) At(i int) *Participant {
	return pl.entries[i]
}

// Contains reports whether id is waiting.
func (pl *Pool) Contains(id string) bool {
	_, ok := pl.ids[id]
	return ok
}

// RemoveAt removes and returns the participant at position i.
func (pl *Pool) RemoveAt(i int) *Participant {
	p := pl.entries[i]
	pl.entries = slices.Delete(pl.entries, i, i+1)
	delete(pl.ids, p.ID)
	return p
}

// RemoveMany removes all given positions in one step. Positions refer to the
// pool as it was before the call; duplicates and out-of-range values are
// ignored. The removed participants are returned in pool order.
func (pl *Pool) RemoveMany(indices []int) []*Participant {
	if len(indices) == 0 {
		return nil
	}

	drop := make([]bool, len(pl.entries))
	for _, i := range indices {
		if i >= 0 && i < len(drop) {
			drop[i] = true
		}
	}

	removed := make([]*Participant, 0, len(indices))
	kept := pl.entries[:0]
	for i, p := range pl.entries {
		if drop[i] {
			removed = append(removed, p)
			delete(pl.ids, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	clear(pl.entries[len(kept):])
	pl.entries = kept
	return removed
}

// Remove drops the participant with the given id, if waiting.
func (pl *Pool) Remove(id string) bool {
	p, ok := pl.ids[id]
	if !ok {
		return false
	}
	pl.RemoveAt(pl.indexOf(p))
	return true
}

// Reorder moves the participant at position i after its adjusted rating
// changed and returns its new position. It only walks past out-of-order
// neighbours, so small rating moves cost a constant number of swaps.
func (pl *Pool) Reorder(i int) int {
	for i > 0 && pl.entries[i].before(pl.entries[i-1]) {
		pl.entries[i], pl.entries[i-1] = pl.entries[i-1], pl.entries[i]
		i--
	}
	for i < len(pl.entries)-1 && pl.entries[i+1].before(pl.entries[i]) {
		pl.entries[i], pl.entries[i+1] = pl.entries[i+1], pl.entries[i]
		i++
	}
	return i
}

// Snapshot returns copies of the waiting participants in pool order.
func (pl *Pool) Snapshot() []Participant {
	out := make([]Participant, len(pl.entries))
	for i, p := range pl.entries {
		out[i] = *p
	}
	return out
}

// Clear drops every participant and returns how many were waiting.
func (pl *Pool) Clear() int {
	n := len(pl.entries)
	pl.entries = nil
	pl.ids = make(map[string]*Participant)
	return n
}

// sorted reports whether the ordering invariant holds.
func (pl *Pool) sorted() bool {
	for i := 1; i < len(pl.entries); i++ {
		if pl.entries[i].before(pl.entries[i-1]) {
			return false
		}
	}
	return true
}

// repair restores the ordering invariant after an interrupted tick.
func (pl *Pool) repair() {
	sort.SliceStable(pl.entries, func(i, j int) bool {
		return pl.entries[i].before(pl.entries[j])
	})
}

// indexOf locates p by binary search; the pool must be sorted.
func (pl *Pool) indexOf(p *Participant) int {
	i := sort.Search(len(pl.entries), func(i int) bool {
		return !pl.entries[i].before(p)
	})
	if i < len(pl.entries) && pl.entries[i] == p {
		return i
	}
	return slices.Index(pl.entries, p)
}
