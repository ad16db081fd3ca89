package models

import (
	"slices"
	"time"

	id "caseflow/pkg/domain"
)

type Status string

const (
	StatusActive        Status = "active"
	StatusTransitioning Status = "transitioning"
	StatusCompleted     Status = "completed"
	StatusInactive      Status = "inactive"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusTransitioning, StatusCompleted, StatusInactive:
		return true
	}
	return false
}

// ClosesEnrollment reports whether moving into s ends the learner's enrollment.
func (s Status) ClosesEnrollment() bool {
	return s == StatusCompleted || s == StatusInactive
}

// HistoryEntry records one finished enrollment. Entries are only ever appended.
type HistoryEntry struct {
	InstitutionID   id.InstitutionID `json:"institution_id"`
	InstitutionName string           `json:"institution_name"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Reason          string           `json:"reason"`
}

// Learner is the directory record the transfer workflow reads and moves.
//
// Invariants:
//   - CurrentInstitutionID is never nil
//   - InstitutionHistory grows by append only
//   - ExitDate is set when Status closes the enrollment
type Learner struct {
	ID                     id.LearnerID       `json:"id"`
	FirstName              string             `json:"first_name"`
	LastName               string             `json:"last_name"`
	CurrentInstitutionID   id.InstitutionID   `json:"current_institution_id"`
	AuthorizedInstitutions []id.InstitutionID `json:"authorized_institutions"`
	Status                 Status             `json:"status"`
	EnrollmentDate         time.Time          `json:"enrollment_date"`
	ExitDate               *time.Time         `json:"exit_date,omitempty"`
	InstitutionHistory     []HistoryEntry     `json:"institution_history"`
	LastModifiedBy         *id.UserID         `json:"last_modified_by,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

func (l *Learner) FullName() string {
	return l.FirstName + " " + l.LastName
}

// AccessibleBy applies the directory access rule: super-admins, the current
// institution and any explicitly authorized institution may see the learner.
func (l *Learner) AccessibleBy(caller id.Identity) bool {
	if caller.IsSuperAdmin() {
		return true
	}
	if caller.BelongsTo(l.CurrentInstitutionID) {
		return true
	}
	return slices.ContainsFunc(l.AuthorizedInstitutions, caller.BelongsTo)
}

func (l *Learner) ApplyStatus(status Status, by id.UserID, now time.Time) {
	l.Status = status
	if status.ClosesEnrollment() {
		l.ExitDate = &now
	}
	l.touch(by, now)
}

// MoveTo re-enrolls the learner at inst starting on enrolledAt.
func (l *Learner) MoveTo(inst id.InstitutionID, enrolledAt time.Time, by id.UserID, now time.Time) {
	l.CurrentInstitutionID = inst
	l.EnrollmentDate = enrolledAt
	l.ExitDate = nil
	l.touch(by, now)
}

func (l *Learner) AppendHistory(entry HistoryEntry, now time.Time) {
	l.InstitutionHistory = append(l.InstitutionHistory, entry)
	l.UpdatedAt = now
}

func (l *Learner) touch(by id.UserID, now time.Time) {
	if !by.IsNil() {
		l.LastModifiedBy = &by
	}
	l.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out shared slices.
func (l *Learner) Clone() *Learner {
	c := *l
	c.AuthorizedInstitutions = slices.Clone(l.AuthorizedInstitutions)
	c.InstitutionHistory = slices.Clone(l.InstitutionHistory)
	if l.ExitDate != nil {
		t := *l.ExitDate
		c.ExitDate = &t
	}
	if l.LastModifiedBy != nil {
		u := *l.LastModifiedBy
		c.LastModifiedBy = &u
	}
	return &c
}
