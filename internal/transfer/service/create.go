package service

import (
	"context"
	"errors"

	"caseflow/internal/transfer/models"
	"caseflow/internal/transfer/ports"
	storetransfer "caseflow/internal/transfer/store/transfer"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

const maxNumberAttempts = 5

// Create opens a pending transfer for a learner from their current institution.
func (s *Service) Create(ctx context.Context, caller id.Identity, req models.CreateTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *models.Transfer
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		learner, err := s.learners.GetLearner(ctx, req.LearnerID, caller)
		if err != nil {
			return err
		}
		if !caller.IsSuperAdmin() && !caller.BelongsTo(learner.CurrentInstitutionID) {
			return dErrors.New(dErrors.CodeForbidden, "only the learner's current institution can initiate a transfer")
		}
		dest, err := s.institutions.GetInstitution(ctx, req.ToInstitutionID)
		if err != nil {
			return err
		}
		if dest.ID == learner.CurrentInstitutionID {
			return dErrors.New(dErrors.CodeValidation, "destination institution must differ from the current institution")
		}

		active, err := s.transfers.HasActiveForLearner(ctx, req.LearnerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check active transfers")
		}
		if active {
			return dErrors.New(dErrors.CodeConflict, "learner already has an active transfer")
		}

		now := requestcontext.Now(ctx)
		t, err := s.insertWithFreshNumber(ctx, req, learner.CurrentInstitutionID, caller.UserID)
		if err != nil {
			return err
		}
		if err := s.learners.SetLearnerStatus(ctx, req.LearnerID, ports.LearnerTransitioning, caller); err != nil {
			return err
		}
		event := models.NewTimelineEvent(t.ID, models.EventTransferInitiated,
			"Transfer initiated to "+dest.Name, caller.UserID,
			models.EventData{
				"transferNumber": t.TransferNumber,
				"reason":         string(t.Reason),
				"priority":       string(t.Priority),
			}, now)
		if err := s.appendEvent(ctx, event); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to create transfer")
	}

	s.metrics.IncTransition("new", string(created.Status))
	s.recordAudit(ctx, caller, audit.EventTransferInitiated, created, map[string]any{
		"reason":   string(created.Reason),
		"priority": string(created.Priority),
	})
	return created, nil
}

// insertWithFreshNumber retries on transfer number collisions.
func (s *Service) insertWithFreshNumber(ctx context.Context, req models.CreateTransferRequest, from id.InstitutionID, by id.UserID) (*models.Transfer, error) {
	now := requestcontext.Now(ctx)
	for range maxNumberAttempts {
		number, err := s.numbers(now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate transfer number")
		}
		t, err := models.NewTransfer(number, req, from, by, now)
		if err != nil {
			return nil, err
		}
		err = s.create(ctx, t)
		if errors.Is(err, storetransfer.ErrDuplicateNumber) {
			s.metrics.IncNumberCollision()
			s.logger.WarnContext(ctx, "transfer number collision, retrying", "transfer_number", number)
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique transfer number")
}
