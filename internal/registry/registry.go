package registry

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no participant exists for an identifier.
var ErrNotFound = errors.New("registry: participant not found")

// Participant is a registered participant as stored by a Registry.
type Participant struct {
	ID     string `json:"id" redis:"id"`
	Name   string `json:"name" redis:"name"`
	Rating int    `json:"rating" redis:"rating"`
}

// Registry looks participants up by identifier. Implementations return an
// error wrapping ErrNotFound when the identifier is unknown.
type Registry interface {
	FindParticipant(ctx context.Context, id string) (Participant, error)
}

// Empty is the default registry. It knows no participants.
type Empty struct{}

// FindParticipant always fails with ErrNotFound.
func (Empty) FindParticipant(_ context.Context, id string) (Participant, error) {
	return Participant{}, notFound(id)
}

// Static serves lookups from a fixed list supplied at construction.
type Static struct {
	byID map[string]Participant
}

// NewStatic indexes the given list. Later duplicates of an ID win.
func NewStatic(list []Participant) *Static {
	byID := make(map[string]Participant, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	return &Static{byID: byID}
}

// FindParticipant returns a copy of the stored record.
func (s *Static) FindParticipant(_ context.Context, id string) (Participant, error) {
	p, ok := s.byID[id]
	if !ok {
		return Participant{}, notFound(id)
	}
	return p, nil
}

// Len returns the number of known participants.
func (s *Static) Len() int {
	return len(s.byID)
}

// Select picks the registry to use: a pre-built store if one is supplied,
// otherwise a Static over players when a list is supplied, otherwise Empty.
func Select(store Registry, players []Participant) Registry {
	if store != nil {
		return store
	}
	if players != nil {
		return NewStatic(players)
	}
	return Empty{}
}

func notFound(id string) error {
	return fmt.Errorf("%w: unknown participant with id %q", ErrNotFound, id)
}
