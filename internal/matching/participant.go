package matching

import (
	"time"
)

// Participant is a waiting entry in the pool.
type Participant struct {
	ID       string
	Name     string
	Rating   int       // base rating, fixed for the session
	Adjusted int       // rating used for ordering and pairing
	Reach    int       // excess tolerance granted by widening, never shrinks
	JoinedAt time.Time // monotonic clock reading

	seq uint64 // join order, breaks ties between equal adjusted ratings
}

// Match is a pairing produced by the Engine. It is immutable once created.
type Match struct {
	MatchID      string    `json:"matchId"`
	ParticipantA string    `json:"participantA"`
	ParticipantB string    `json:"participantB"`
	CreatedAt    time.Time `json:"createdAt"`
}

// before reports whether p sorts ahead of q in the pool.
func (p *Participant) before(q *Participant) bool {
	if p.Adjusted != q.Adjusted {
		return p.Adjusted < q.Adjusted
	}
	return p.seq < q.seq
}
