package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mindwell/internal/storage"
	logx "mindwell/pkg/logx"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "auth.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, ttl, logx.Nop())
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	s := newTestService(t, time.Hour)
	ctx := context.Background()

	id, err := s.Register(ctx, "alice", "correct horse", "a@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero user id")
	}

	if _, err := s.Register(ctx, "alice", "another pass", "", "", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register = %v, want ErrUsernameTaken", err)
	}

	sess, err := s.Login(ctx, "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.UserID != id {
		t.Fatalf("unexpected session: %+v", sess)
	}

	got, err := s.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != id {
		t.Fatalf("Resolve = %d, want %d", got, id)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	s := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "bob", "password123", "", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := s.Login(ctx, "bob", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	s := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "  ", "password123", "", "", ""); err == nil {
		t.Fatal("blank username should fail")
	}
	if _, err := s.Register(ctx, "carol", "short", "", "", ""); err == nil {
		t.Fatal("short password should fail")
	}
}

func TestResolveExpiredSession(t *testing.T) {
	t.Parallel()
	s := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "dave", "password123", "", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := s.Login(ctx, "dave", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Move the clock past the session TTL.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := s.Resolve(ctx, sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expired resolve = %v, want ErrSessionExpired", err)
	}
	// The expired session is removed; a second resolve sees no session at all.
	if _, err := s.Resolve(ctx, sess.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("second resolve = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	s := newTestService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "erin", "password123", "", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := s.Login(ctx, "erin", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := s.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Resolve(ctx, sess.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("resolve after logout = %v, want ErrInvalidCredentials", err)
	}
}
