package models

import (
	"strings"
	"time"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

type InstitutionType string

const (
	InstitutionTypeSchool      InstitutionType = "school"
	InstitutionTypeTutorCentre InstitutionType = "tutor_centre"
)

func (t InstitutionType) IsValid() bool {
	return t == InstitutionTypeSchool || t == InstitutionTypeTutorCentre
}

// Institution is a school or tutor centre, one side of a transfer.
// A soft-deleted institution resolves as not found everywhere.
type Institution struct {
	ID        id.InstitutionID `json:"id"`
	Name      string           `json:"name"`
	Type      InstitutionType  `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

func NewInstitution(instID id.InstitutionID, name string, kind InstitutionType, now time.Time) (*Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution name must be 1-200 characters")
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown institution type")
	}
	return &Institution{ID: instID, Name: name, Type: kind, CreatedAt: now, UpdatedAt: now}, nil
}

func (i *Institution) IsDeleted() bool {
	return i.DeletedAt != nil
}
