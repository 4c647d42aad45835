package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"mintslip-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = stderrors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps the backend token and user snapshot per service session.
type SessionStore struct {
	redis *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{redis: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionStore) Save(ctx context.Context, id string, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", id)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	val, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// UpdateUser replaces the cached user snapshot and keeps the remaining TTL.
func (s *SessionStore) UpdateUser(ctx context.Context, id string, user models.User) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.User = user
	if err := s.Save(ctx, id, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}
