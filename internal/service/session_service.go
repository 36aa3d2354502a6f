package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/repository"
)

const deadSessionNamespace = "session:dead"

var errMalformedSessionToken = errors.New("malformed session token")

// SessionService owns issuance, resolution and revocation of login sessions.
type SessionService struct {
	sessionRepo repository.SessionRepository
	deadTokens  NegativeLookupCacheStore
	deadTTL     time.Duration
	now         func() time.Time
	random      io.Reader
}

func NewSessionService(sessionRepo repository.SessionRepository, deadTokens NegativeLookupCacheStore, deadTTL time.Duration) *SessionService {
	if deadTokens == nil {
		deadTokens = NewNoopNegativeLookupCacheStore()
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		deadTokens:  deadTokens,
		deadTTL:     deadTTL,
		now:         time.Now,
		random:      rand.Reader,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func (s *SessionService) Issue(ctx context.Context, readerID uint) (*domain.Session, error) {
	id, err := s.newSessionID()
	if err != nil {
		observability.RecordSessionIssue(ctx, "error")
		return nil, err
	}
	now := s.now().UTC()
	session := &domain.Session{
		ID:        id,
		ReaderID:  readerID,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		observability.RecordSessionIssue(ctx, "error")
		return nil, fmt.Errorf("create session: %w", err)
	}
	observability.RecordSessionIssue(ctx, "success")
	return session, nil
}

// Resolve returns the reader owning token when the session is active. Every
// other outcome (malformed, unknown, expired, revoked) is reported as ok=false
// without saying which. err is only set for storage failures.
func (s *SessionService) Resolve(ctx context.Context, token string) (uint, bool, error) {
	ctx, span := observability.StartSpan(ctx, "session.resolve")
	defer span.End()

	id, err := ParseSessionToken(token)
	if err != nil {
		observability.RecordSessionResolve(ctx, "malformed")
		return 0, false, nil
	}
	if s.isKnownDead(ctx, id) {
		observability.RecordSessionResolve(ctx, "cached_dead")
		return 0, false, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.rememberDead(ctx, id)
			observability.RecordSessionResolve(ctx, "not_found")
			return 0, false, nil
		}
		observability.RecordSessionResolve(ctx, "error")
		return 0, false, fmt.Errorf("find session: %w", err)
	}

	state := session.StateAt(s.now())
	observability.RecordSessionResolve(ctx, string(state))
	if state != domain.SessionActive {
		s.rememberDead(ctx, id)
		return 0, false, nil
	}
	return session.ReaderID, true, nil
}

// Revoke ends an active session. Malformed, unknown, expired and already
// revoked tokens are silently ignored. revoked reports whether this call was
// the one that ended the session.
func (s *SessionService) Revoke(ctx context.Context, token string) (revoked bool, err error) {
	id, err := ParseSessionToken(token)
	if err != nil {
		return false, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find session: %w", err)
	}
	now := s.now().UTC()
	if session.StateAt(now) != domain.SessionActive {
		return false, nil
	}
	changed, err := s.sessionRepo.Revoke(ctx, id, now)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	s.rememberDead(ctx, id)
	return changed, nil
}

// ParseSessionToken accepts only the canonical 36 character textual form.
func ParseSessionToken(token string) (uuid.UUID, error) {
	if len(token) != 36 {
		return uuid.Nil, errMalformedSessionToken
	}
	id, err := uuid.Parse(token)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errMalformedSessionToken
	}
	return id, nil
}

// newSessionID fills all 128 bits from the CSPRNG; version and variant bits
// are not reserved.
func (s *SessionService) newSessionID() (uuid.UUID, error) {
	var id uuid.UUID
	if _, err := io.ReadFull(s.random, id[:]); err != nil {
		return uuid.Nil, fmt.Errorf("generate session id: %w", err)
	}
	return id, nil
}

func (s *SessionService) isKnownDead(ctx context.Context, id uuid.UUID) bool {
	dead, err := s.deadTokens.Get(ctx, deadSessionNamespace, id.String())
	if err != nil {
		observability.RecordNegativeLookupCache(ctx, deadSessionNamespace, "error")
		slog.WarnContext(ctx, "negative lookup cache read failed", "error", err.Error())
		return false
	}
	if dead {
		observability.RecordNegativeLookupCache(ctx, deadSessionNamespace, "hit")
	} else {
		observability.RecordNegativeLookupCache(ctx, deadSessionNamespace, "miss")
	}
	return dead
}

func (s *SessionService) rememberDead(ctx context.Context, id uuid.UUID) {
	if err := s.deadTokens.Set(ctx, deadSessionNamespace, id.String(), s.deadTTL); err != nil {
		slog.WarnContext(ctx, "negative lookup cache write failed", "error", err.Error())
	}
}
