package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hubooks/reading-service/internal/domain"
	"github.com/hubooks/reading-service/internal/repository"
)

type inMemorySessionRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*domain.Session
	findCalls int
	findErr   error
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{byID: map[uuid.UUID]*domain.Session{}}
}

func (r *inMemorySessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("duplicate session id")
	}
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *inMemorySessionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	s, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *inMemorySessionRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	stamp := at.UTC()
	s.RevokedAt = &stamp
	return true, nil
}

func (r *inMemorySessionRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCalls
}

type inMemoryReaderRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*domain.Reader
	err    error
}

func newInMemoryReaderRepo() *inMemoryReaderRepo {
	return &inMemoryReaderRepo{nextID: 1, byID: map[uint]*domain.Reader{}}
}

func (r *inMemoryReaderRepo) FindByID(_ context.Context, id uint) (*domain.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	reader, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrReaderNotFound
	}
	cp := *reader
	return &cp, nil
}

func (r *inMemoryReaderRepo) FindByName(_ context.Context, name string) (*domain.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, reader := range r.byID {
		if reader.Name == name {
			cp := *reader
			return &cp, nil
		}
	}
	return nil, repository.ErrReaderNotFound
}

func (r *inMemoryReaderRepo) Create(_ context.Context, reader *domain.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Name == reader.Name {
			return repository.ErrReaderNameTaken
		}
	}
	reader.ID = r.nextID
	r.nextID++
	cp := *reader
	r.byID[reader.ID] = &cp
	return nil
}

func (r *inMemoryReaderRepo) Update(_ context.Context, reader *domain.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[reader.ID]; !ok {
		return repository.ErrReaderNotFound
	}
	for id, existing := range r.byID {
		if id != reader.ID && existing.Name == reader.Name {
			return repository.ErrReaderNameTaken
		}
	}
	cp := *reader
	r.byID[reader.ID] = &cp
	return nil
}

func (r *inMemoryReaderRepo) ListPaged(_ context.Context, query repository.ReaderListQuery) (repository.PageResult[domain.Reader], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]domain.Reader, 0, len(r.byID))
	for _, reader := range r.byID {
		items = append(items, *reader)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return repository.PageResult[domain.Reader]{
		Items:    items,
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    int64(len(items)),
	}, nil
}

type failingNegativeLookupCache struct{}

func (failingNegativeLookupCache) Get(context.Context, string, string) (bool, error) {
	return false, errors.New("cache unavailable")
}

func (failingNegativeLookupCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache unavailable")
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
