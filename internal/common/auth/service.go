package auth

import (
	"context"
	stderrors "errors"
	"time"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/models"
)

// Backend is the subset of the backend client used for identity.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Me(ctx context.Context, token string) (*models.User, error)
}

// Service implements login, signup, logout and user refresh on top of the
// backend, keeping the session server side.
type Service struct {
	backend Backend
	store   *SessionStore
	tokens  *TokenIssuer
	logger  logger.Logger
}

func NewService(backend Backend, store *SessionStore, tokens *TokenIssuer, log logger.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		tokens:  tokens,
		logger:  log.WithFields(map[string]interface{}{"component": "auth"}),
	}
}

func (s *Service) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, errors.NewFormValidationFailedError("email and password are required")
	}
	res, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, res)
}

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, errors.NewFormValidationFailedError("name, email and password are required")
	}
	res, err := s.backend.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, res)
}

func (s *Service) open(ctx context.Context, res *models.AuthResult) (*models.Session, error) {
	token, sessionID, expiresAt, err := s.tokens.Issue(res.User.ID, res.User.Email)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	session := &models.Session{
		Token:        token,
		BackendToken: res.Token,
		User:         res.User,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    expiresAt,
	}
	if err := s.store.Save(ctx, sessionID, session); err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}

	s.logger.Info("session opened", map[string]interface{}{"userId": res.User.ID})
	return session, nil
}

// Authenticate resolves a service token to its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Session, string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, "", errors.NewAuthenticationFailedError(err.Error())
	}
	session, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if stderrors.Is(err, ErrSessionNotFound) {
			return nil, "", errors.NewSessionNotFoundError()
		}
		return nil, "", errors.NewCacheUnavailableError(err)
	}
	return session, claims.SessionID, nil
}

// Logout drops the session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return false, errors.NewAuthenticationFailedError(err.Error())
	}
	deleted, err := s.store.Delete(ctx, claims.SessionID)
	if err != nil {
		return false, errors.NewCacheUnavailableError(err)
	}
	return deleted, nil
}

// RefreshUser re-fetches the user from the backend and updates the snapshot.
func (s *Service) RefreshUser(ctx context.Context, token string) (*models.User, error) {
	session, sessionID, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.backend.Me(ctx, session.BackendToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.UpdateUser(ctx, sessionID, *user); err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	return user, nil
}
