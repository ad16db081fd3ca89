package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caseflow/internal/learner/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, l *models.Learner) error
	FindByID(ctx context.Context, learnerID id.LearnerID) (*models.Learner, error)
	Save(ctx context.Context, l *models.Learner) error
}

// Update carries the learner fields a caller may move. Nil fields are left alone.
type Update struct {
	CurrentInstitutionID *id.InstitutionID
	EnrollmentDate       *time.Time
}

// CreateRequest seeds a learner record.
type CreateRequest struct {
	FirstName              string
	LastName               string
	InstitutionID          id.InstitutionID
	AuthorizedInstitutions []id.InstitutionID
	EnrollmentDate         time.Time
}

// Service is the learner directory. Every caller-facing method applies the
// learner access rule before touching the record.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Learner, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "learner first and last name are required")
	}
	if req.InstitutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "learner must be enrolled at an institution")
	}
	now := requestcontext.Now(ctx)
	enrolled := req.EnrollmentDate
	if enrolled.IsZero() {
		enrolled = now
	}
	l := &models.Learner{
		ID:                     id.NewLearnerID(),
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		CurrentInstitutionID:   req.InstitutionID,
		AuthorizedInstitutions: req.AuthorizedInstitutions,
		Status:                 models.StatusActive,
		EnrollmentDate:         enrolled,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.store.Create(ctx, l); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "learner already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create learner")
	}
	return l, nil
}

// Get returns the learner when caller may see it.
func (s *Service) Get(ctx context.Context, learnerID id.LearnerID, caller id.Identity) (*models.Learner, error) {
	l, err := s.store.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "learner not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load learner")
	}
	if !l.AccessibleBy(caller) {
		return nil, dErrors.New(dErrors.CodeForbidden, "access to learner denied")
	}
	return l, nil
}

func (s *Service) SetStatus(ctx context.Context, learnerID id.LearnerID, status models.Status, caller id.Identity) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown learner status")
	}
	l, err := s.Get(ctx, learnerID, caller)
	if err != nil {
		return err
	}
	l.ApplyStatus(status, caller.UserID, requestcontext.Now(ctx))
	return s.save(ctx, l)
}

func (s *Service) Update(ctx context.Context, learnerID id.LearnerID, upd Update, caller id.Identity) error {
	l, err := s.Get(ctx, learnerID, caller)
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	inst := l.CurrentInstitutionID
	if upd.CurrentInstitutionID != nil {
		inst = *upd.CurrentInstitutionID
	}
	enrolled := l.EnrollmentDate
	if upd.EnrollmentDate != nil {
		enrolled = *upd.EnrollmentDate
	}
	l.MoveTo(inst, enrolled, caller.UserID, now)
	return s.save(ctx, l)
}

// AppendInstitutionHistory records a finished enrollment. It is an internal
// operation and applies no caller scoping.
func (s *Service) AppendInstitutionHistory(ctx context.Context, learnerID id.LearnerID, entry models.HistoryEntry) error {
	l, err := s.store.FindByID(ctx, learnerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "learner not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load learner")
	}
	l.AppendHistory(entry, requestcontext.Now(ctx))
	return s.save(ctx, l)
}

func (s *Service) save(ctx context.Context, l *models.Learner) error {
	if err := s.store.Save(ctx, l); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "learner not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save learner")
	}
	s.logger.DebugContext(ctx, "learner saved", "learner_id", l.ID, "status", l.Status)
	return nil
}
