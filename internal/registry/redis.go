package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ParticipantPrefix is the Redis key prefix for participant hashes.
const ParticipantPrefix = "participant:"

// RedisStore resolves participants stored as Redis hashes:
//
//	Key:    participant:<id>
//	Fields: id, name, rating
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store using the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// FindParticipant loads the participant hash for id.
func (s *RedisStore) FindParticipant(ctx context.Context, id string) (Participant, error) {
	var p Participant
	if err := s.client.HGetAll(ctx, ParticipantPrefix+id).Scan(&p); err != nil {
		return Participant{}, fmt.Errorf("registry: redis lookup %s: %w", id, err)
	}
	if p.ID == "" {
		return Participant{}, notFound(id)
	}
	return p, nil
}

// Put stores or replaces a participant record.
func (s *RedisStore) Put(ctx context.Context, p Participant) error {
	err := s.client.HSet(ctx, ParticipantPrefix+p.ID,
		"id", p.ID,
		"name", p.Name,
		"rating", p.Rating,
	).Err()
	if err != nil {
		return fmt.Errorf("registry: redis put %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a participant record.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, ParticipantPrefix+id).Err()
}
