package payments

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	checkoutKeyPrefix = "idem:checkout:"
	fulfilKeyPrefix   = "idem:fulfil:"
	downloadKeyPrefix = "idem:download:"
	submitKeyPrefix   = "idem:submit:"
	pendingMarker     = "pending"
)

// ErrInFlight means another request holds the key and has not finished yet.
var ErrInFlight = stderrors.New("idempotent request in flight")

// IdempotencyStore records the result of a keyed operation in Redis so a
// repeated request gets the first result back.
type IdempotencyStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{redis: client, ttl: ttl}
}

// Reserve claims key. It returns false with the recorded result decoded into
// out when the key was already completed, and ErrInFlight when it is claimed
// but not completed.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, out interface{}) (bool, error) {
	ok, err := s.redis.SetNX(ctx, key, pendingMarker, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	if ok {
		return true, nil
	}

	found, err := s.Load(ctx, key, out)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrInFlight
	}
	return false, nil
}

// Complete stores the result for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("record %s: %w", key, err)
	}
	return nil
}

// CompleteOnce stores result only if nothing is recorded for key yet.
func (s *IdempotencyStore) CompleteOnce(ctx context.Context, key string, result interface{}) (bool, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("marshal result: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record %s: %w", key, err)
	}
	return ok, nil
}

// Load decodes the completed result for key. A pending or missing key reports
// false.
func (s *IdempotencyStore) Load(ctx context.Context, key string, out interface{}) (bool, error) {
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if val == pendingMarker {
		return false, nil
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key).Err()
}

func CheckoutKey(idempotencyKey string) string {
	return checkoutKeyPrefix + idempotencyKey
}

func FulfilKey(reference string) string {
	return fulfilKeyPrefix + reference
}

// DownloadKey guards the single quota deduction a form session is entitled to.
func DownloadKey(formSessionID string) string {
	return downloadKeyPrefix + formSessionID
}

// SubmitKey is scoped to the user so two users cannot collide on a client key.
func SubmitKey(userID, idempotencyKey string) string {
	return submitKeyPrefix + userID + ":" + idempotencyKey
}
