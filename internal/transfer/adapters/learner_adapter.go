package adapters

import (
	"context"

	learnermodels "caseflow/internal/learner/models"
	learnerservice "caseflow/internal/learner/service"
	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
)

// LearnerAdapter implements ports.LearnerDirectory on top of the in-process
// learner service.
type LearnerAdapter struct {
	learners *learnerservice.Service
}

func NewLearnerAdapter(learners *learnerservice.Service) ports.LearnerDirectory {
	return &LearnerAdapter{learners: learners}
}

func (a *LearnerAdapter) GetLearner(ctx context.Context, learnerID id.LearnerID, caller id.Identity) (*ports.Learner, error) {
	l, err := a.learners.Get(ctx, learnerID, caller)
	if err != nil {
		return nil, err
	}
	return &ports.Learner{
		ID:                   l.ID,
		FirstName:            l.FirstName,
		LastName:             l.LastName,
		CurrentInstitutionID: l.CurrentInstitutionID,
		Status:               ports.LearnerStatus(l.Status),
		EnrollmentDate:       l.EnrollmentDate,
	}, nil
}

func (a *LearnerAdapter) SetLearnerStatus(ctx context.Context, learnerID id.LearnerID, status ports.LearnerStatus, caller id.Identity) error {
	return a.learners.SetStatus(ctx, learnerID, learnermodels.Status(status), caller)
}

func (a *LearnerAdapter) UpdateLearner(ctx context.Context, learnerID id.LearnerID, update ports.LearnerUpdate, caller id.Identity) error {
	return a.learners.Update(ctx, learnerID, learnerservice.Update{
		CurrentInstitutionID: update.CurrentInstitutionID,
		EnrollmentDate:       update.EnrollmentDate,
	}, caller)
}

func (a *LearnerAdapter) AppendInstitutionHistory(ctx context.Context, learnerID id.LearnerID, entry ports.InstitutionHistoryEntry) error {
	return a.learners.AppendInstitutionHistory(ctx, learnerID, learnermodels.HistoryEntry{
		InstitutionID:   entry.InstitutionID,
		InstitutionName: entry.InstitutionName,
		StartDate:       entry.StartDate,
		EndDate:         entry.EndDate,
		Reason:          entry.Reason,
	})
}
