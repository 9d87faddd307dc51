package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, ratings ...int) *Pool {
	t.Helper()
	pl := NewPool()
	for i, r := range ratings {
		require.NoError(t, pl.Insert(joinedAt(fmt.Sprintf("p%d", i), r, epoch)))
	}
	return pl
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func TestEngine_PairsAdjacent(t *testing.T) {
	e := NewEngine(121)
	e.newID = sequentialIDs()
	pl := newTestPool(t, 1000, 1100, 1150, 1300)

	matches := e.Match(pl, epoch)

	require.Len(t, matches, 1)
	assert.Equal(t, Match{MatchID: "m1", ParticipantA: "p0", ParticipantB: "p1", CreatedAt: epoch}, matches[0])
	assert.Equal(t, []string{"p2", "p3"}, poolIDs(pl))
}

func TestEngine_PassedOverNotRevisited(t *testing.T) {
	e := NewEngine(100)
	pl := newTestPool(t, 1000, 1200, 1250)

	matches := e.Match(pl, epoch)

	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].ParticipantA)
	assert.Equal(t, "p2", matches[0].ParticipantB)
	assert.Equal(t, []string{"p0"}, poolIDs(pl))
}

func TestEngine_ThresholdInclusive(t *testing.T) {
	e := NewEngine(121)

	assert.Len(t, e.Match(newTestPool(t, 1000, 1121), epoch), 1)
	assert.Empty(t, e.Match(newTestPool(t, 1000, 1122), epoch))
}

func TestEngine_AtMostHalf(t *testing.T) {
	e := NewEngine(0)
	pl := newTestPool(t, 1000, 1000, 1000, 1000, 1000)

	matches := e.Match(pl, epoch)

	require.Len(t, matches, 2)
	assert.Equal(t, 1, pl.Len())

	seen := map[string]bool{}
	for _, m := range matches {
		for _, id := range []string{m.ParticipantA, m.ParticipantB} {
			assert.False(t, seen[id], "%s matched twice", id)
			seen[id] = true
		}
	}
}

func TestEngine_UniqueMatchIDs(t *testing.T) {
	e := NewEngine(50)
	pl := newTestPool(t, 100, 110, 500, 510, 900, 910)

	matches := e.Match(pl, epoch)

	require.Len(t, matches, 3)
	ids := map[string]bool{}
	for _, m := range matches {
		assert.NotEmpty(t, m.MatchID)
		ids[m.MatchID] = true
	}
	assert.Len(t, ids, 3)
}

func TestEngine_NothingToDo(t *testing.T) {
	e := NewEngine(10)

	assert.Empty(t, e.Match(NewPool(), epoch))
	assert.Empty(t, e.Match(newTestPool(t, 1000), epoch))
}
