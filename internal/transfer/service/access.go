package service

import (
	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// party selects which side of a transfer may perform an operation.
type party int

const (
	eitherParty party = iota
	sendingParty
	receivingParty
)

// authorize applies the transfer access rule. Super-admins bypass scoping.
func authorize(caller id.Identity, t *models.Transfer, side party) error {
	if caller.IsSuperAdmin() {
		return nil
	}
	var ok bool
	switch side {
	case sendingParty:
		ok = caller.BelongsTo(t.FromInstitutionID)
	case receivingParty:
		ok = caller.BelongsTo(t.ToInstitutionID)
	default:
		ok = caller.BelongsTo(t.FromInstitutionID) || caller.BelongsTo(t.ToInstitutionID)
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "access to transfer denied")
	}
	return nil
}

// participantScope is the identity used for learner directory writes once a
// caller has passed authorize. The learner still belongs to the sending
// institution at that point, so the receiving side acts through it.
func participantScope(caller id.Identity, t *models.Transfer) id.Identity {
	if caller.IsSuperAdmin() {
		return caller
	}
	scoped := caller
	scoped.InstitutionID = t.FromInstitutionID
	return scoped
}
