package service

import (
	"context"
	"time"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/audit"
)

func (s *Service) Acknowledge(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AcknowledgeTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "acknowledge", transferAttr(transferID))
	defer func() { done(err) }()

	return s.mutate(ctx, caller, transferID, receivingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		if err := t.Acknowledge(caller.UserID, req, now); err != nil {
			return outcome{}, err
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventAcknowledged,
				"Transfer acknowledged by receiving institution", caller.UserID,
				models.EventData{
					"notes":              req.Notes,
					"documentsReceived":  req.DocumentsReceived,
					"readyForEnrollment": req.ReadyForEnrollment,
				}, now),
			action: audit.EventTransferAcknowledged,
		}, nil
	})
}
