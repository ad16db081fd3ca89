package service

import (
	"context"
	"errors"
	"time"

	"caseflow/internal/transfer/models"
	storetransfer "caseflow/internal/transfer/store/transfer"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// outcome is what an operation hands back to mutate: the one timeline event
// to append and the audit record to emit after commit.
type outcome struct {
	event     *models.TimelineEvent
	action    audit.AuditEvent
	auditMeta map[string]any
	// skipSave leaves the transfer row untouched, for timeline-only operations.
	skipSave bool
}

type applyFunc func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error)

// mutate is the shared unit of work for operations on an existing transfer:
// load, authorize, apply, save, append one timeline event, commit, audit.
func (s *Service) mutate(ctx context.Context, caller id.Identity, transferID id.TransferID, side party, apply applyFunc) (*models.Transfer, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}
	var (
		updated *models.Transfer
		before  models.Status
		out     outcome
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.load(ctx, transferID)
		if err != nil {
			return err
		}
		if err := authorize(caller, t, side); err != nil {
			return err
		}
		before = t.Status
		out, err = apply(ctx, t, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if !out.skipSave {
			if err := s.save(ctx, t); err != nil {
				return err
			}
		}
		if err := s.appendEvent(ctx, out.event); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, internal(err, "transfer update failed")
	}
	if updated.Status != before {
		s.metrics.IncTransition(string(before), string(updated.Status))
	}
	s.recordAudit(ctx, caller, out.action, updated, out.auditMeta)
	return updated, nil
}

func (s *Service) load(ctx context.Context, transferID id.TransferID) (*models.Transfer, error) {
	t, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer")
	}
	return t, nil
}

func (s *Service) save(ctx context.Context, t *models.Transfer) error {
	if err := s.transfers.Save(ctx, t); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "transfer not found")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "learner already has an active transfer")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save transfer")
	}
	return nil
}

func (s *Service) create(ctx context.Context, t *models.Transfer) error {
	if err := s.transfers.Create(ctx, t); err != nil {
		switch {
		case errors.Is(err, storetransfer.ErrDuplicateNumber):
			return err
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "learner already has an active transfer")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transfer")
	}
	return nil
}

func (s *Service) appendEvent(ctx context.Context, e *models.TimelineEvent) error {
	if err := s.timeline.Append(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record timeline event")
	}
	return nil
}

// institutionName resolves a display name. A since-deleted institution falls
// back to its id so historical records can still be written.
func (s *Service) institutionName(ctx context.Context, instID id.InstitutionID) (string, error) {
	inst, err := s.institutions.GetInstitution(ctx, instID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return instID.String(), nil
		}
		return "", err
	}
	return inst.Name, nil
}

const previewLength = 100

// preview shortens a message to its first 100 characters.
func preview(msg string) string {
	r := []rune(msg)
	if len(r) <= previewLength {
		return msg
	}
	return string(r[:previewLength]) + "..."
}
