package ports

import (
	"context"

	id "caseflow/pkg/domain"
)

type Institution struct {
	ID   id.InstitutionID
	Name string
	Type string
}

// InstitutionDirectory resolves institutions. Soft-deleted ones are NotFound.
type InstitutionDirectory interface {
	GetInstitution(ctx context.Context, institutionID id.InstitutionID) (*Institution, error)
}
