package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const formSessionPrefix = "formsession:"

// FormSessionStore keeps in-progress forms in Redis. Every save refreshes
// the TTL, so an abandoned form expires on its own.
type FormSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewFormSessionStore(client *redis.Client, ttl time.Duration) *FormSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &FormSessionStore{redis: client, ttl: ttl, now: time.Now}
}

func formSessionKey(id string) string {
	return formSessionPrefix + id
}

// Create opens a form for docType. An empty templateID selects the first
// template of the type.
func (s *FormSessionStore) Create(ctx context.Context, userID, docType, templateID string) (*models.FormSession, error) {
	def, err := Lookup(docType)
	if err != nil {
		return nil, err
	}
	templateID, err = def.ResolveTemplate(templateID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	fs := &models.FormSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentType: docType,
		TemplateID:   templateID,
		Data:         map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Save(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// Get loads a form. A form owned by another user reports not found.
func (s *FormSessionStore) Get(ctx context.Context, id, userID string) (*models.FormSession, error) {
	val, err := s.redis.Get(ctx, formSessionKey(id)).Result()
	if err == redis.Nil {
		return nil, errors.NewFormSessionNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}

	var fs models.FormSession
	if err := json.Unmarshal([]byte(val), &fs); err != nil {
		return nil, errors.NewCacheUnavailableError(fmt.Errorf("decode form session %s: %w", id, err))
	}
	if fs.UserID != "" && fs.UserID != userID {
		return nil, errors.NewFormSessionNotFoundError(id)
	}
	if fs.Data == nil {
		fs.Data = map[string]string{}
	}
	return &fs, nil
}

func (s *FormSessionStore) Save(ctx context.Context, fs *models.FormSession) error {
	fs.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("encode form session: %w", err)
	}
	if err := s.redis.Set(ctx, formSessionKey(fs.ID), data, s.ttl).Err(); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}

// Update merges masked field updates into the form and saves it.
func (s *FormSessionStore) Update(ctx context.Context, id, userID string, updates map[string]string) (*models.FormSession, error) {
	fs, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	ApplyMasks(updates)
	FormData(fs.Data).Merge(updates)
	if err := s.Save(ctx, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *FormSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, formSessionKey(id)).Err(); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}
