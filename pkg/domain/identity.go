package domain

import (
	dErrors "caseflow/pkg/domain-errors"
)

// Role is the caller's platform role, resolved at authentication time.
type Role string

const (
	RoleSuperAdmin       Role = "SUPER_ADMIN"
	RoleSchoolAdmin      Role = "SCHOOL_ADMIN"
	RoleTutorCentreAdmin Role = "TUTOR_CENTRE_ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RoleTutorCentreAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// Identity is the authenticated caller. It is passed explicitly into every
// transfer operation rather than read from ambient state.
//
// InstitutionID is the zero value for super-admins who are not attached to an
// institution; every other role must carry one.
type Identity struct {
	UserID        UserID
	InstitutionID InstitutionID
	Role          Role
}

func (i Identity) IsSuperAdmin() bool {
	return i.Role == RoleSuperAdmin
}

// BelongsTo reports whether the caller acts for the given institution.
// Super-admins do not implicitly belong to any institution.
func (i Identity) BelongsTo(institutionID InstitutionID) bool {
	return !i.InstitutionID.IsNil() && i.InstitutionID == institutionID
}

// Validate enforces the identity invariants at the trust boundary.
func (i Identity) Validate() error {
	if i.UserID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing user identity")
	}
	if !i.Role.IsValid() {
		return dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	if !i.IsSuperAdmin() && i.InstitutionID.IsNil() {
		return dErrors.New(dErrors.CodeForbidden, "institution membership required")
	}
	return nil
}
