package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/repositories"
	"miniblog/pkg/apperrors"

	"github.com/google/uuid"
)

// Session is the identity of one caller. An anonymous session has no User.
type Session struct {
	ID        string
	User      *models.User
	Remember  bool
	ExpiresAt time.Time
}

// Anonymous returns a session with no authenticated user.
func Anonymous() *Session {
	return &Session{}
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

func (s *Session) CurrentUser() *models.User {
	if s == nil {
		return nil
	}
	return s.User
}

// SessionService issues, resolves and ends sessions.
type SessionService struct {
	store       repositories.SessionStore
	users       repositories.UserRepository
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// NewSessionService creates a new SessionService. Remembered sessions live
// for rememberTTL, the rest for ttl.
func NewSessionService(store repositories.SessionStore, users repositories.UserRepository, ttl, rememberTTL time.Duration) *SessionService {
	return &SessionService{
		store:       store,
		users:       users,
		ttl:         ttl,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// Login starts a new session for user.
func (s *SessionService) Login(ctx context.Context, user *models.User, remember bool) (*Session, error) {
	if user == nil {
		return nil, apperrors.ErrAuthenticationRequired
	}

	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}

	sess := &Session{
		ID:        uuid.NewString(),
		User:      user,
		Remember:  remember,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.store.Save(ctx, sess.ID, user.ID, ttl); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return sess, nil
}

// Resolve maps a session id to its session. Unknown, expired or orphaned ids
// resolve to an anonymous session; only store failures are errors.
func (s *SessionService) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return Anonymous(), nil
	}

	userID, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Anonymous(), nil
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = s.store.Delete(ctx, id)
			return Anonymous(), nil
		}
		return nil, err
	}
	return &Session{ID: id, User: user}, nil
}

// Logout ends the session. Anonymous sessions are a no-op.
func (s *SessionService) Logout(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	sess.User = nil
	return nil
}

func (s *SessionService) TTL(remember bool) time.Duration {
	if remember {
		return s.rememberTTL
	}
	return s.ttl
}
