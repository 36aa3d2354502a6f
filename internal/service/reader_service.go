package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/security"
)

type EnrollReaderInput struct {
	Name        string
	PIN         string
	TargetCount int
}

// UpdateReaderInput holds optional changes; nil fields are left untouched.
type UpdateReaderInput struct {
	Name         *string
	TargetCount  *int
	CurrentRound *int
	PIN          *string
}

type ReaderService struct {
	readerRepo repository.ReaderRepository
}

func NewReaderService(readerRepo repository.ReaderRepository) *ReaderService {
	return &ReaderService{readerRepo: readerRepo}
}

func (s *ReaderService) Enroll(ctx context.Context, in EnrollReaderInput) (*domain.Reader, error) {
	name, err := normalizeReaderName(in.Name)
	if err != nil {
		return nil, err
	}
	pin := strings.TrimSpace(in.PIN)
	if err := validatePINLength(pin); err != nil {
		return nil, err
	}
	if in.TargetCount < 0 {
		return nil, invalidInput("target_count must be >= 0")
	}
	hash, salt, err := security.HashPIN(pin)
	if err != nil {
		return nil, err
	}
	reader := &domain.Reader{
		Name:         name,
		TargetCount:  in.TargetCount,
		CurrentRound: domain.DefaultCurrentRound,
		PinHash:      hash,
		PinSalt:      salt,
	}
	if err := s.readerRepo.Create(ctx, reader); err != nil {
		return nil, mapReaderRepoError(err)
	}
	return reader, nil
}

// ResetPINByName re-enrolls the PIN of an existing reader with a fresh salt.
func (s *ReaderService) ResetPINByName(ctx context.Context, name, pin string) (*domain.Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	reader, err := s.readerRepo.FindByName(ctx, name)
	if err != nil {
		return nil, mapReaderRepoError(err)
	}
	pin = strings.TrimSpace(pin)
	if err := validatePINLength(pin); err != nil {
		return nil, err
	}
	if err := setPIN(reader, pin); err != nil {
		return nil, err
	}
	if err := s.readerRepo.Update(ctx, reader); err != nil {
		return nil, mapReaderRepoError(err)
	}
	return reader, nil
}

func (s *ReaderService) Get(ctx context.Context, id uint) (*domain.Reader, error) {
	reader, err := s.readerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReaderRepoError(err)
	}
	return reader, nil
}

func (s *ReaderService) List(ctx context.Context, page repository.PageRequest) (repository.PageResult[domain.Reader], error) {
	res, err := s.readerRepo.ListPaged(ctx, repository.ReaderListQuery{PageRequest: page})
	if err != nil {
		return repository.PageResult[domain.Reader]{}, fmt.Errorf("list readers: %w", err)
	}
	return res, nil
}

// Update applies in to targetID on behalf of actorID. Ownership is checked
// before the target is looked up.
func (s *ReaderService) Update(ctx context.Context, actorID, targetID uint, in UpdateReaderInput) (*domain.Reader, error) {
	if actorID != targetID {
		observability.RecordRepositoryOperation(ctx, "reader", "update_denied", "forbidden")
		return nil, ErrForbidden
	}
	reader, err := s.readerRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, mapReaderRepoError(err)
	}

	if in.Name != nil {
		name, err := normalizeReaderName(*in.Name)
		if err != nil {
			return nil, err
		}
		reader.Name = name
	}
	if in.TargetCount != nil {
		if *in.TargetCount < 0 {
			return nil, invalidInput("target_count must be >= 0")
		}
		reader.TargetCount = *in.TargetCount
	}
	if in.CurrentRound != nil {
		if *in.CurrentRound < 1 {
			return nil, invalidInput("current_round must be >= 1")
		}
		reader.CurrentRound = *in.CurrentRound
	}
	if in.PIN != nil {
		pin := strings.TrimSpace(*in.PIN)
		if err := validatePINLength(pin); err != nil {
			return nil, err
		}
		if err := setPIN(reader, pin); err != nil {
			return nil, err
		}
	}

	if err := s.readerRepo.Update(ctx, reader); err != nil {
		return nil, mapReaderRepoError(err)
	}
	return reader, nil
}

func normalizeReaderName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalidInput("name is required")
	}
	if utf8.RuneCountInString(name) > domain.ReaderNameMaxLength {
		return "", invalidInput(fmt.Sprintf("name must be at most %d characters", domain.ReaderNameMaxLength))
	}
	return name, nil
}

func setPIN(reader *domain.Reader, pin string) error {
	hash, salt, err := security.HashPIN(pin)
	if err != nil {
		return err
	}
	reader.PinHash = hash
	reader.PinSalt = salt
	return nil
}

func mapReaderRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrReaderNotFound):
		return ErrReaderNotFound
	case errors.Is(err, repository.ErrReaderNameTaken):
		return ErrReaderNameTaken
	default:
		return fmt.Errorf("reader repository: %w", err)
	}
}
