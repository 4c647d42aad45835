// internal/workers/auth/auth-logout/handler_test.go
package authlogout

import (
	"context"
	"testing"
	"time"

	"mintslip-workers/internal/common/auth"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	handler *Handler
	store   *auth.SessionStore
	tokens  *auth.TokenIssuer
}

func createTestHandler(t *testing.T) *testEnv {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := auth.NewSessionStore(rdb)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := auth.NewService(nil, store, tokens, logger.NewTestLogger(t))

	h := NewHandler(&Config{Timeout: 5 * time.Second}, svc, logger.NewTestLogger(t), nil)
	h.now = func() time.Time { return time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC) }
	return &testEnv{handler: h, store: store, tokens: tokens}
}

func (e *testEnv) openSession(t *testing.T) string {
	token, sid, exp, err := e.tokens.Issue("user-1", "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, e.store.Save(context.Background(), sid, &models.Session{
		Token:        token,
		BackendToken: "backend-1",
		User:         models.User{ID: "user-1", Email: "jane@example.com"},
		ExpiresAt:    exp,
	}))
	return token
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	env := createTestHandler(t)
	token := env.openSession(t)

	output, err := env.handler.Execute(context.Background(), &Input{Token: "Bearer " + token})
	require.NoError(t, err)
	assert.True(t, output.LoggedOut)
	assert.True(t, output.SessionDeleted)
	assert.Equal(t, time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC), output.LogoutAt)

	again, err := env.handler.Execute(context.Background(), &Input{Token: token})
	require.NoError(t, err)
	assert.True(t, again.LoggedOut)
	assert.False(t, again.SessionDeleted)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "bearer only", token: "Bearer "},
		{name: "forged token", token: "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := createTestHandler(t)
			output, err := env.handler.Execute(context.Background(), &Input{Token: tt.token})

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeAuthenticationFailed, stdErr.Code)
		})
	}
}
