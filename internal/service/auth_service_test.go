package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/security"
)

func seedReader(t *testing.T, repo *inMemoryReaderRepo, name, pin string) *domain.Reader {
	t.Helper()
	hash, salt, err := security.HashPIN(pin)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	reader := &domain.Reader{Name: name, TargetCount: 3, CurrentRound: 1, PinHash: hash, PinSalt: salt}
	if err := repo.Create(context.Background(), reader); err != nil {
		t.Fatalf("create reader: %v", err)
	}
	return reader
}

func newTestAuthService(t *testing.T, delay time.Duration) (*AuthService, *inMemoryReaderRepo, *SessionService) {
	t.Helper()
	readers := newInMemoryReaderRepo()
	sessions := NewSessionService(newInMemorySessionRepo(), nil, time.Minute)
	return NewAuthService(readers, sessions, delay), readers, sessions
}

func TestAuthServiceLoginSuccessIssuesResolvableSession(t *testing.T) {
	ctx := context.Background()
	svc, readers, sessions := newTestAuthService(t, 0)
	reader := seedReader(t, readers, "alice", "1234")

	res, err := svc.Login(ctx, "  alice ", " 1234 ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Reader.ID != reader.ID {
		t.Fatalf("expected reader %d, got %d", reader.ID, res.Reader.ID)
	}
	readerID, ok, err := sessions.Resolve(ctx, res.Session.Token())
	if err != nil || !ok || readerID != reader.ID {
		t.Fatalf("issued session must resolve, id=%d ok=%v err=%v", readerID, ok, err)
	}
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc, readers, _ := newTestAuthService(t, time.Hour)
	seedReader(t, readers, "alice", "1234")

	cases := []struct {
		name, user, pin, msg string
	}{
		{"blank name", "   ", "1234", "name and PIN are required"},
		{"blank pin", "alice", "", "name and PIN are required"},
		{"short pin", "alice", "123", "PIN must be 4-6 digits"},
		{"long pin", "alice", "1234567", "PIN must be 4-6 digits"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			_, err := svc.Login(context.Background(), tc.user, tc.pin)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if err.Error() != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, err.Error())
			}
			if time.Since(start) > 5*time.Second {
				t.Fatal("validation failures must not wait the failure delay")
			}
		})
	}
}

func TestAuthServiceLoginFailuresAreIndistinguishableAndDelayed(t *testing.T) {
	const delay = 500 * time.Millisecond
	svc, readers, _ := newTestAuthService(t, delay)
	seedReader(t, readers, "alice", "1234")

	for _, tc := range []struct{ name, user, pin string }{
		{"wrong pin", "alice", "9999"},
		{"unknown name", "bob", "1234"},
		{"case mismatch", "Alice", "1234"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			_, err := svc.Login(context.Background(), tc.user, tc.pin)
			elapsed := time.Since(start)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected invalid credentials, got %v", err)
			}
			if elapsed < delay {
				t.Fatalf("failure returned after %v, want at least %v", elapsed, delay)
			}
		})
	}
}

func TestAuthServiceLoginDelayHonoursCancellation(t *testing.T) {
	svc, readers, _ := newTestAuthService(t, time.Hour)
	seedReader(t, readers, "alice", "1234")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Login(ctx, "alice", "0000")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAuthServiceLoginStorageError(t *testing.T) {
	svc, readers, _ := newTestAuthService(t, 0)
	readers.err = errors.New("db down")
	_, err := svc.Login(context.Background(), "alice", "1234")
	if err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthServiceLogout(t *testing.T) {
	ctx := context.Background()
	svc, readers, sessions := newTestAuthService(t, 0)
	seedReader(t, readers, "alice", "1234")

	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatalf("anonymous logout: %v", err)
	}
	if err := svc.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("malformed logout: %v", err)
	}

	res, err := svc.Login(ctx, "alice", "1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, res.Session.Token()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, res.Session.Token()); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
	if _, ok, _ := sessions.Resolve(ctx, res.Session.Token()); ok {
		t.Fatal("session must not resolve after logout")
	}
}

func TestAuthServiceCurrentReader(t *testing.T) {
	svc, readers, _ := newTestAuthService(t, 0)
	reader := seedReader(t, readers, "alice", "1234")

	got, err := svc.CurrentReader(context.Background(), reader.ID)
	if err != nil || got.Name != "alice" {
		t.Fatalf("expected alice, got %+v err=%v", got, err)
	}
	if _, err := svc.CurrentReader(context.Background(), 999); !errors.Is(err, ErrReaderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
