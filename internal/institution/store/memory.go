package store

import (
	"context"
	"sync"
	"time"

	"caseflow/internal/institution/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	rows map[id.InstitutionID]models.Institution
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[id.InstitutionID]models.Institution)}
}

func (s *InMemory) Create(_ context.Context, inst *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[inst.ID]; ok {
		return sentinel.ErrConflict
	}
	s.rows[inst.ID] = *inst
	return nil
}

// FindByID returns ErrNotFound for missing and soft-deleted rows.
func (s *InMemory) FindByID(_ context.Context, instID id.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[instID]
	if !ok || row.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	return &row, nil
}

func (s *InMemory) SoftDelete(_ context.Context, instID id.InstitutionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[instID]
	if !ok || row.IsDeleted() {
		return sentinel.ErrNotFound
	}
	row.DeletedAt = &at
	row.UpdatedAt = at
	s.rows[instID] = row
	return nil
}
