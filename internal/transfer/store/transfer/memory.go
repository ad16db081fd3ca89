package transfer

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// InMemory is a map-backed transfer store. It enforces the one-active-transfer
// rule itself and takes part in in-memory units of work through Snapshot.
type InMemory struct {
	mu        sync.RWMutex
	transfers map[id.TransferID]*models.Transfer
	numbers   map[string]id.TransferID
}

func NewInMemory() *InMemory {
	return &InMemory{
		transfers: make(map[id.TransferID]*models.Transfer),
		numbers:   make(map[string]id.TransferID),
	}
}

func (s *InMemory) Create(_ context.Context, t *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numbers[t.TransferNumber]; taken {
		return ErrDuplicateNumber
	}
	if _, exists := s.transfers[t.ID]; exists {
		return sentinel.ErrConflict
	}
	if t.Status.IsActive() && s.activeOtherThanLocked(t.LearnerID, t.ID) {
		return sentinel.ErrConflict
	}
	s.transfers[t.ID] = t.Clone()
	s.numbers[t.TransferNumber] = t.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, transferID id.TransferID) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[transferID]
	if !ok || t.IsDeleted() {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

// FindByIDIncludingDeleted also returns soft-deleted transfers.
func (s *InMemory) FindByIDIncludingDeleted(_ context.Context, transferID id.TransferID) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, t *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.transfers[t.ID]
	if !ok || current.IsDeleted() {
		return sentinel.ErrNotFound
	}
	if t.Status.IsActive() && s.activeOtherThanLocked(t.LearnerID, t.ID) {
		return sentinel.ErrConflict
	}
	s.transfers[t.ID] = t.Clone()
	return nil
}

func (s *InMemory) SoftDelete(_ context.Context, transferID id.TransferID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[transferID]
	if !ok || t.IsDeleted() {
		return sentinel.ErrNotFound
	}
	deleted := t.Clone()
	deleted.DeletedAt = &at
	deleted.UpdatedAt = at
	s.transfers[transferID] = deleted
	return nil
}

func (s *InMemory) HasActiveForLearner(_ context.Context, learnerID id.LearnerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeOtherThanLocked(learnerID, id.TransferID{}), nil
}

func (s *InMemory) activeOtherThanLocked(learnerID id.LearnerID, except id.TransferID) bool {
	for _, t := range s.transfers {
		if t.ID != except && t.LearnerID == learnerID && t.Status.IsActive() && !t.IsDeleted() {
			return true
		}
	}
	return false
}

// List returns one page of matching transfers, newest first, and the total match count.
func (s *InMemory) List(_ context.Context, f models.ListFilter) ([]*models.Transfer, int, error) {
	s.mu.RLock()
	var matched []*models.Transfer
	for _, t := range s.transfers {
		if matches(t, f) {
			matched = append(matched, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].TransferNumber > matched[j].TransferNumber
	})

	total := len(matched)
	if f.Offset >= total {
		return []*models.Transfer{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (s *InMemory) Statistics(_ context.Context, scope *id.InstitutionID) (models.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats models.Statistics
	f := models.ListFilter{Scope: scope}
	for _, t := range s.transfers {
		if !matches(t, f) {
			continue
		}
		stats.Total++
		switch t.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusApproved:
			stats.Approved++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

func matches(t *models.Transfer, f models.ListFilter) bool {
	if t.IsDeleted() {
		return false
	}
	if f.Scope != nil && t.FromInstitutionID != *f.Scope && t.ToInstitutionID != *f.Scope {
		return false
	}
	if f.LearnerID != nil && t.LearnerID != *f.LearnerID {
		return false
	}
	if f.FromInstitutionID != nil && t.FromInstitutionID != *f.FromInstitutionID {
		return false
	}
	if f.ToInstitutionID != nil && t.ToInstitutionID != *f.ToInstitutionID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	transfers := maps.Clone(s.transfers)
	numbers := maps.Clone(s.numbers)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.transfers = transfers
		s.numbers = numbers
		s.mu.Unlock()
	}
}
