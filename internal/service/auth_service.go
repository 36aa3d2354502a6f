package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/security"
)

const (
	PINMinLength = 4
	PINMaxLength = 6
)

// dummySalt stands in for a stored salt when the name is unknown so that both
// failure paths pay for one key derivation.
var dummySalt = make([]byte, security.PINSaltSize)

type LoginResult struct {
	Reader  *domain.Reader
	Session *domain.Session
}

type AuthService struct {
	readerRepo   repository.ReaderRepository
	sessions     *SessionService
	failureDelay time.Duration
}

func NewAuthService(readerRepo repository.ReaderRepository, sessions *SessionService, failureDelay time.Duration) *AuthService {
	return &AuthService{readerRepo: readerRepo, sessions: sessions, failureDelay: failureDelay}
}

func (s *AuthService) Login(ctx context.Context, name, pin string) (*LoginResult, error) {
	ctx, span := observability.StartSpan(ctx, "auth.login")
	defer span.End()

	name = strings.TrimSpace(name)
	pin = strings.TrimSpace(pin)
	if name == "" || pin == "" {
		observability.RecordAuthLogin(ctx, "invalid_input")
		return nil, invalidInput("name and PIN are required")
	}
	if err := validatePINLength(pin); err != nil {
		observability.RecordAuthLogin(ctx, "invalid_input")
		return nil, err
	}

	reader, err := s.readerRepo.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, repository.ErrReaderNotFound) {
			observability.RecordAuthLogin(ctx, "error")
			return nil, fmt.Errorf("find reader: %w", err)
		}
		security.VerifyPIN(pin, dummySalt, nil)
		return nil, s.rejectCredentials(ctx)
	}
	if !security.VerifyPIN(pin, reader.PinSalt, reader.PinHash) {
		return nil, s.rejectCredentials(ctx)
	}

	session, err := s.sessions.Issue(ctx, reader.ID)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return &LoginResult{Reader: reader, Session: session}, nil
}

// Logout revokes the session behind token if there is one. Missing or
// malformed tokens succeed without touching storage.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		observability.RecordAuthLogout(ctx, "anonymous")
		return nil
	}
	revoked, err := s.sessions.Revoke(ctx, token)
	if err != nil {
		observability.RecordAuthLogout(ctx, "error")
		return err
	}
	if revoked {
		observability.RecordAuthLogout(ctx, "revoked")
	} else {
		observability.RecordAuthLogout(ctx, "noop")
	}
	return nil
}

func (s *AuthService) CurrentReader(ctx context.Context, readerID uint) (*domain.Reader, error) {
	reader, err := s.readerRepo.FindByID(ctx, readerID)
	if err != nil {
		if errors.Is(err, repository.ErrReaderNotFound) {
			return nil, ErrReaderNotFound
		}
		return nil, fmt.Errorf("find reader: %w", err)
	}
	return reader, nil
}

func (s *AuthService) rejectCredentials(ctx context.Context) error {
	observability.RecordAuthLogin(ctx, "invalid_credentials")
	if err := s.wait(ctx); err != nil {
		return err
	}
	return ErrInvalidCredentials
}

func (s *AuthService) wait(ctx context.Context) error {
	if s.failureDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.failureDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validatePINLength(pin string) error {
	n := utf8.RuneCountInString(pin)
	if n < PINMinLength || n > PINMaxLength {
		return invalidInput("PIN must be 4-6 digits")
	}
	return nil
}
