package adapters

import (
	"context"

	institutionservice "caseflow/internal/institution/service"
	"caseflow/internal/transfer/ports"
	id "caseflow/pkg/domain"
)

type InstitutionAdapter struct {
	institutions *institutionservice.Service
}

func NewInstitutionAdapter(institutions *institutionservice.Service) ports.InstitutionDirectory {
	return &InstitutionAdapter{institutions: institutions}
}

func (a *InstitutionAdapter) GetInstitution(ctx context.Context, institutionID id.InstitutionID) (*ports.Institution, error) {
	inst, err := a.institutions.Get(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	return &ports.Institution{ID: inst.ID, Name: inst.Name, Type: string(inst.Type)}, nil
}
