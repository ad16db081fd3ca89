package service

import (
	"context"
	"time"

	"caseflow/internal/transfer/models"
	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
)

// Cancel withdraws a transfer from the sending side and returns the learner to
// active. Any status but completed may be cancelled.
func (s *Service) Cancel(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CancelTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "cancel", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, sendingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		previous := t.Status
		if err := t.Cancel(req.Reason, caller.UserID, now); err != nil {
			return outcome{}, err
		}
		reset, err := s.shouldResetLearner(ctx, t, previous)
		if err != nil {
			return outcome{}, err
		}
		if reset {
			if err := s.learners.SetLearnerStatus(ctx, t.LearnerID, ports.LearnerActive, participantScope(caller, t)); err != nil {
				return outcome{}, err
			}
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventCancelled,
				"Transfer cancelled: "+req.Reason, caller.UserID,
				models.EventData{"reason": req.Reason, "previousStatus": string(previous)}, now),
			action:    audit.EventTransferCancelled,
			auditMeta: map[string]any{"cancellation_reason": req.Reason, "previous_status": string(previous)},
		}, nil
	})
}

// shouldResetLearner reports whether cancelling t may return the learner to
// active. A transfer that was no longer active when cancelled leaves the
// learner alone if another transfer has since been opened for them.
func (s *Service) shouldResetLearner(ctx context.Context, t *models.Transfer, previous models.Status) (bool, error) {
	if previous.IsActive() {
		return true, nil
	}
	open, err := s.transfers.HasActiveForLearner(ctx, t.LearnerID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check active transfers")
	}
	return !open, nil
}
