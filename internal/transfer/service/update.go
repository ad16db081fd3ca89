package service

import (
	"context"
	"time"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
)

// Update edits the mutable details of a pending or cancelled transfer from the
// sending side.
func (s *Service) Update(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.UpdateTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "update", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, sendingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		changes, err := t.ApplyUpdate(req, now)
		if err != nil {
			return outcome{}, err
		}
		if len(changes) == 0 {
			return outcome{}, dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventStatusChanged,
				"Transfer details updated", caller.UserID,
				models.EventData{"changes": changes}, now),
			action:    audit.EventTransferUpdated,
			auditMeta: map[string]any{"changes": changes},
		}, nil
	})
}
