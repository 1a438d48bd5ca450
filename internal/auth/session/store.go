// Package session implements the durable session scope: per user, exactly
// two Redis keys — a token marker and the serialized user record — plus a
// set of active session ids swept by the inactivity watchdog. Both keys
// carry the idle TTL and every touch resets it; logout or forced timeout
// clears the scope completely.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"funilzap_backend/internal/auth/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const activeSetKey = "sessions:active"

type Store struct {
	client  *redis.Client
	idleTTL time.Duration
}

func NewStore(client *redis.Client, idleTTL time.Duration) *Store {
	return &Store{client: client, idleTTL: idleTTL}
}

func tokenKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:%s:token", userID)
}

func userKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:%s:user", userID)
}

// Put writes both session keys and registers the session for sweeping.
func (s *Store) Put(ctx context.Context, user domain.SessionUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey(user.ID), "1", s.idleTTL)
	pipe.Set(ctx, userKey(user.ID), payload, s.idleTTL)
	pipe.SAdd(ctx, activeSetKey, user.ID.String())
	_, err = pipe.Exec(ctx)
	return err
}

// Touch verifies the session is still alive and resets its inactivity
// countdown. Returns false when the token marker has expired or was cleared.
func (s *Store) Touch(ctx context.Context, userID uuid.UUID) (bool, error) {
	exists, err := s.client.Exists(ctx, tokenKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	pipe := s.client.Pipeline()
	pipe.Expire(ctx, tokenKey(userID), s.idleTTL)
	pipe.Expire(ctx, userKey(userID), s.idleTTL)
	_, err = pipe.Exec(ctx)
	return err == nil, err
}

// Get returns the serialized user record, or nil when no session exists.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*domain.SessionUser, error) {
	payload, err := s.client.Get(ctx, userKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user domain.SessionUser
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Clear removes the whole session scope.
func (s *Store) Clear(ctx context.Context, userID uuid.UUID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, tokenKey(userID), userKey(userID))
	pipe.SRem(ctx, activeSetKey, userID.String())
	_, err := pipe.Exec(ctx)
	return err
}

// Active lists the user ids with a registered (possibly already expired)
// session. The watchdog prunes expired entries.
func (s *Store) Active(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DisplayName returns the session user's name for transcript attribution,
// falling back to a generic staff label when the session is gone.
func (s *Store) DisplayName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.Get(ctx, userID)
	if err != nil || user == nil || user.Name == "" {
		return "equipe"
	}
	return user.Name
}

// Alive reports whether the token marker still exists, without touching it.
func (s *Store) Alive(ctx context.Context, userID uuid.UUID) (bool, error) {
	exists, err := s.client.Exists(ctx, tokenKey(userID)).Result()
	return exists > 0, err
}
