// Package auth handles account registration, credential checks and
// session tokens backed by the storage layer.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mindwell/internal/storage"
	logx "mindwell/pkg/logx"
)

var (
	ErrUsernameTaken      = errors.New("auth: username already taken")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrSessionExpired     = errors.New("auth: session expired")
)

const (
	minPasswordLen    = 8
	defaultSessionTTL = 24 * time.Hour
)

type Service struct {
	db  *storage.DB
	log logx.Logger
	ttl time.Duration

	now func() time.Time
}

func New(db *storage.DB, ttl time.Duration, log logx.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{db: db, log: log, ttl: ttl, now: time.Now}
}

// Register creates a new account and returns its user ID.
func (s *Service) Register(ctx context.Context, username, password, email, firstName, lastName string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.New("auth: username is required")
	}
	if len(password) < minPasswordLen {
		return 0, errors.New("auth: password too short")
	}
	if _, err := s.db.UserByUsername(ctx, username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	id, err := s.db.CreateUser(ctx, storage.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("user registered", logx.Int64("user_id", id), logx.String("username", username))
	return id, nil
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(ctx context.Context, username, password string) (storage.Session, error) {
	u, err := s.db.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return storage.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return storage.Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := storage.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.CreateSession(ctx, sess); err != nil {
		return storage.Session{}, err
	}
	if err := s.db.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("touch last login failed", logx.Int64("user_id", u.ID), logx.Err(err))
	}
	s.log.Debug("session created", logx.Int64("user_id", u.ID))
	return sess, nil
}

// Resolve maps a token to a user ID, deleting the session if expired.
func (s *Service) Resolve(ctx context.Context, token string) (int64, error) {
	sess, err := s.db.SessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	if !sess.ExpiresAt.After(s.now().UTC()) {
		_ = s.db.DeleteSession(ctx, token)
		return 0, ErrSessionExpired
	}
	return sess.UserID, nil
}

// Logout invalidates the session token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.db.DeleteSession(ctx, token)
}
