package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caseflow/internal/institution/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, inst *models.Institution) error
	FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
	SoftDelete(ctx context.Context, instID id.InstitutionID, at time.Time) error
}

// Reader serves lookups, typically a cache in front of the Store.
type Reader interface {
	FindByID(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
}

// Invalidator drops cached copies after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, instID id.InstitutionID) error
}

// Service is the institution directory.
type Service struct {
	store       Store
	reader      Reader
	invalidator Invalidator
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

type ReadCache interface {
	Reader
	Invalidator
}

// WithReadCache routes lookups through cache and invalidates it on delete.
func WithReadCache(cache ReadCache) Option {
	return func(s *Service) {
		s.reader = cache
		s.invalidator = cache
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, reader: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, name string, kind models.InstitutionType) (*models.Institution, error) {
	inst, err := models.NewInstitution(id.NewInstitutionID(), name, kind, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.Create(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "institution already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create institution")
	}
	return inst, nil
}

func (s *Service) Get(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	inst, err := s.reader.FindByID(ctx, instID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
	}
	return inst, nil
}

func (s *Service) Delete(ctx context.Context, instID id.InstitutionID) error {
	if err := s.store.SoftDelete(ctx, instID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "institution not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete institution")
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, instID); err != nil {
			s.logger.WarnContext(ctx, "institution cache invalidation failed",
				"institution_id", instID, "error", err)
		}
	}
	return nil
}
