package service

import (
	"context"
	"time"

	"caseflow/internal/transfer/models"
	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/audit"
)

// Complete finalizes an approved, acknowledged transfer and moves the learner:
// the sending enrollment is closed into the learner's history and the learner
// is re-enrolled at the receiving institution. All of it commits or none of it.
func (s *Service) Complete(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CompleteTransferRequest) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "complete", transferAttr(transferID))
	defer func() { done(err) }()

	return s.mutate(ctx, caller, transferID, receivingParty, func(ctx context.Context, t *models.Transfer, now time.Time) (outcome, error) {
		if err := t.CheckCompletable(req.CompletionChecklist); err != nil {
			return outcome{}, err
		}
		actual := now
		if req.ActualTransferDate != nil {
			actual = *req.ActualTransferDate
		}

		scope := participantScope(caller, t)
		learner, err := s.learners.GetLearner(ctx, t.LearnerID, scope)
		if err != nil {
			return outcome{}, err
		}
		fromName, err := s.institutionName(ctx, t.FromInstitutionID)
		if err != nil {
			return outcome{}, err
		}
		toName, err := s.institutionName(ctx, t.ToInstitutionID)
		if err != nil {
			return outcome{}, err
		}

		if err := t.Complete(*req.CompletionChecklist, actual, now); err != nil {
			return outcome{}, err
		}

		err = s.learners.AppendInstitutionHistory(ctx, t.LearnerID, ports.InstitutionHistoryEntry{
			InstitutionID:   t.FromInstitutionID,
			InstitutionName: fromName,
			StartDate:       learner.EnrollmentDate,
			EndDate:         actual,
			Reason:          "Transferred to " + toName,
		})
		if err != nil {
			return outcome{}, err
		}
		if err := s.learners.SetLearnerStatus(ctx, t.LearnerID, ports.LearnerActive, scope); err != nil {
			return outcome{}, err
		}
		dest := t.ToInstitutionID
		if err := s.learners.UpdateLearner(ctx, t.LearnerID, ports.LearnerUpdate{
			CurrentInstitutionID: &dest,
			EnrollmentDate:       &actual,
		}, scope); err != nil {
			return outcome{}, err
		}

		return outcome{
			event: models.NewTimelineEvent(t.ID, models.EventCompleted,
				"Transfer completed successfully", caller.UserID,
				models.EventData{"actualTransferDate": actual.UTC().Format(time.RFC3339)}, now),
			action:    audit.EventTransferCompleted,
			auditMeta: map[string]any{"actual_transfer_date": actual.UTC().Format(time.RFC3339)},
		}, nil
	})
}
