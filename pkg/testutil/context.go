package testutil

import (
	"net/http"

	id "caseflow/pkg/domain"
	"caseflow/pkg/requestcontext"
)

// WithIdentity attaches an authenticated caller to the request context,
// the same way the auth middleware does.
func WithIdentity(req *http.Request, caller id.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), caller))
}

// SuperAdmin returns a super-admin caller with a fresh user id.
func SuperAdmin() id.Identity {
	return id.Identity{UserID: id.NewUserID(), Role: id.RoleSuperAdmin}
}

// SchoolAdmin returns a school admin bound to inst.
func SchoolAdmin(inst id.InstitutionID) id.Identity {
	return id.Identity{UserID: id.NewUserID(), InstitutionID: inst, Role: id.RoleSchoolAdmin}
}

// TutorCentreAdmin returns a tutor centre admin bound to inst.
func TutorCentreAdmin(inst id.InstitutionID) id.Identity {
	return id.Identity{UserID: id.NewUserID(), InstitutionID: inst, Role: id.RoleTutorCentreAdmin}
}
