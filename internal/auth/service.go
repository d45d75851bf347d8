package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/db"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the connection state shown to the operator.
type State string

const (
	Connected    State = "Connected"
	Disconnected State = "Disconnected"
)

// TokenValidator resolves a bearer token into an operator identity.
type TokenValidator interface {
	Validate(ctx context.Context, token, preferredProfile string) (Identity, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, s db.Session) error
	LoadSession(ctx context.Context, id string) (db.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Service ties token validation to session persistence.
type Service struct {
	validator TokenValidator
	store     SessionStore
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
}

// NewService constructs a Service.
func NewService(validator TokenValidator, store SessionStore, logger *zap.Logger, metrics observability.MetricsRegistry) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Service{validator: validator, store: store, logger: logger, metrics: metrics}
}

// Login validates token and stores it under a freshly issued session id.
// The previous session under prevSessionID is removed whether or not the
// login succeeds; a failed login leaves the operator disconnected.
func (s *Service) Login(ctx context.Context, prevSessionID, token, preferredProfile string) (db.Session, error) {
	token = NormalizeToken(token)
	identity, err := s.validator.Validate(ctx, token, preferredProfile)
	s.metrics.IncrementAuthAttempts(Reason(err))
	if err != nil {
		s.logger.Info("login rejected", zap.String("reason", Reason(err)), zap.Error(err))
		s.dropPrevious(ctx, prevSessionID)
		return db.Session{}, err
	}

	sess := db.Session{
		ID:        uuid.NewString(),
		Token:     token,
		ProfileID: identity.ProfileID,
		AccountID: identity.AccountID,
		UserName:  identity.Name,
		Email:     identity.Email,
		Picture:   identity.Picture,
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return db.Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.dropPrevious(ctx, prevSessionID)
	s.logger.Info("operator connected",
		zap.String("profile_id", sess.ProfileID),
		zap.String("account_id", sess.AccountID))
	return sess, nil
}

func (s *Service) dropPrevious(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn("failed to clear previous session", zap.Error(err))
	}
}

// Current returns the stored session and its state. A missing session is
// Disconnected without error.
func (s *Service) Current(ctx context.Context, sessionID string) (db.Session, State, error) {
	sess, err := s.store.LoadSession(ctx, sessionID)
	if errors.Is(err, db.ErrSessionNotFound) {
		return db.Session{}, Disconnected, nil
	}
	if err != nil {
		return db.Session{}, Disconnected, err
	}
	return sess, Connected, nil
}

// Logout forgets the session unconditionally.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, sessionID)
}
