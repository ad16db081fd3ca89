package service

import (
	"context"
	"time"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/audit"
)

// Review approves or rejects a pending transfer on behalf of the receiving
// institution. A rejection leaves the learner's status as it is.
func (s *Service) Review(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ReviewTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "review", transferAttr(transferID))
	defer func() { done(err) }()

	return s.mutate(ctx, caller, transferID, receivingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		if err := t.Review(req.Status, caller.UserID, req.ReviewNotes, req.ActualTransferDate, now); err != nil {
			return outcome{}, err
		}
		kind, action := models.EventApproved, audit.EventTransferApproved
		if req.Status == models.StatusRejected {
			kind, action = models.EventRejected, audit.EventTransferRejected
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, kind,
				"Transfer "+string(req.Status)+" by receiving institution", caller.UserID,
				models.EventData{"reviewNotes": req.ReviewNotes}, now),
			action:    action,
			auditMeta: map[string]any{"review_notes": req.ReviewNotes},
		}, nil
	})
}
