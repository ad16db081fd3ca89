package ports

import (
	"context"
	"time"

	id "caseflow/pkg/domain"
)

type LearnerStatus string

const (
	LearnerActive        LearnerStatus = "active"
	LearnerTransitioning LearnerStatus = "transitioning"
	LearnerCompleted     LearnerStatus = "completed"
	LearnerInactive      LearnerStatus = "inactive"
)

// Learner is the slice of a learner record the transfer workflow needs.
type Learner struct {
	ID                   id.LearnerID
	FirstName            string
	LastName             string
	CurrentInstitutionID id.InstitutionID
	Status               LearnerStatus
	EnrollmentDate       time.Time
}

// LearnerUpdate moves a learner. Nil fields are left unchanged.
type LearnerUpdate struct {
	CurrentInstitutionID *id.InstitutionID
	EnrollmentDate       *time.Time
}

type InstitutionHistoryEntry struct {
	InstitutionID   id.InstitutionID
	InstitutionName string
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
}

// LearnerDirectory is the learner record system. NotFound and Forbidden errors
// it returns are passed to callers unchanged.
type LearnerDirectory interface {
	GetLearner(ctx context.Context, learnerID id.LearnerID, caller id.Identity) (*Learner, error)
	SetLearnerStatus(ctx context.Context, learnerID id.LearnerID, status LearnerStatus, caller id.Identity) error
	UpdateLearner(ctx context.Context, learnerID id.LearnerID, update LearnerUpdate, caller id.Identity) error
	AppendInstitutionHistory(ctx context.Context, learnerID id.LearnerID, entry InstitutionHistoryEntry) error
}
