package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/audit"
)

// AddCommunication appends a message between the two institutions. It is
// allowed in every status.
func (s *Service) AddCommunication(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AddCommunicationRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "add_communication", transferAttr(transferID))
	defer func() { done(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, transferID, eitherParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		msg, err := t.AddCommunication(sender(caller), req.ToInstitutionID, req.Message, uuid.NewString(), now)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventCommunicationSent,
				"Message sent: "+preview(req.Message), caller.UserID,
				models.EventData{"communicationId": msg.ID, "from": msg.From, "to": msg.To.String()}, now),
			action:    audit.EventTransferCommunicationAdded,
			auditMeta: map[string]any{"communication_id": msg.ID},
		}, nil
	})
}

// sender names the sending side of a communication.
func sender(caller id.Identity) string {
	if caller.InstitutionID.IsNil() {
		return caller.UserID.String()
	}
	return caller.InstitutionID.String()
}
