package service

import (
	"context"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/repository"
)

// SessionResolver maps a presented token to the reader that owns it.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (readerID uint, ok bool, err error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, name, pin string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentReader(ctx context.Context, readerID uint) (*domain.Reader, error)
}

type ReaderServiceInterface interface {
	Get(ctx context.Context, id uint) (*domain.Reader, error)
	List(ctx context.Context, page repository.PageRequest) (repository.PageResult[domain.Reader], error)
	Update(ctx context.Context, actorID, targetID uint, in UpdateReaderInput) (*domain.Reader, error)
}

var (
	_ SessionResolver        = (*SessionService)(nil)
	_ AuthServiceInterface   = (*AuthService)(nil)
	_ ReaderServiceInterface = (*ReaderService)(nil)
)
