package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/observability"
)

var (
	ErrReaderNotFound  = errors.New("reader not found")
	ErrReaderNameTaken = errors.New("reader name already taken")
)

type ReaderListQuery struct {
	PageRequest
}

type ReaderRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Reader, error)
	// FindByName matches the stored handle exactly, case included.
	FindByName(ctx context.Context, name string) (*domain.Reader, error)
	Create(ctx context.Context, reader *domain.Reader) error
	Update(ctx context.Context, reader *domain.Reader) error
	ListPaged(ctx context.Context, query ReaderListQuery) (PageResult[domain.Reader], error)
}

type GormReaderRepository struct{ db *gorm.DB }

func NewReaderRepository(db *gorm.DB) ReaderRepository { return &GormReaderRepository{db: db} }

func (r *GormReaderRepository) FindByID(ctx context.Context, id uint) (*domain.Reader, error) {
	var reader domain.Reader
	err := r.db.WithContext(ctx).First(&reader, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "reader", "find_by_id", "not_found")
			return nil, ErrReaderNotFound
		}
		observability.RecordRepositoryOperation(ctx, "reader", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "reader", "find_by_id", "success")
	return &reader, nil
}

func (r *GormReaderRepository) FindByName(ctx context.Context, name string) (*domain.Reader, error) {
	var reader domain.Reader
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "reader", "find_by_name", "not_found")
			return nil, ErrReaderNotFound
		}
		observability.RecordRepositoryOperation(ctx, "reader", "find_by_name", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "reader", "find_by_name", "success")
	return &reader, nil
}

func (r *GormReaderRepository) Create(ctx context.Context, reader *domain.Reader) error {
	err := r.db.WithContext(ctx).Create(reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "reader", "create", "conflict")
			return ErrReaderNameTaken
		}
		observability.RecordRepositoryOperation(ctx, "reader", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "reader", "create", "success")
	return nil
}

func (r *GormReaderRepository) Update(ctx context.Context, reader *domain.Reader) error {
	err := r.db.WithContext(ctx).Save(reader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "reader", "update", "conflict")
			return ErrReaderNameTaken
		}
		observability.RecordRepositoryOperation(ctx, "reader", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "reader", "update", "success")
	return nil
}

func (r *GormReaderRepository) ListPaged(ctx context.Context, query ReaderListQuery) (PageResult[domain.Reader], error) {
	req := normalizePageRequest(query.PageRequest)
	result := PageResult[domain.Reader]{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	base := r.db.WithContext(ctx).Model(&domain.Reader{})
	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "reader", "list_paged", "error")
		return PageResult[domain.Reader]{}, err
	}
	offset := (req.Page - 1) * req.PageSize
	if err := base.Order("id ASC").Offset(offset).Limit(req.PageSize).Find(&result.Items).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "reader", "list_paged", "error")
		return PageResult[domain.Reader]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(ctx, "reader", "list_paged", "success")
	return result, nil
}
