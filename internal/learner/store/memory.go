package store

import (
	"context"
	"maps"
	"sync"

	"caseflow/internal/learner/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// InMemory keeps learners in a map. It takes part in in-memory units of work
// through Snapshot.
type InMemory struct {
	mu       sync.RWMutex
	learners map[id.LearnerID]*models.Learner

	// failSave, when set, is returned by Save. Tests use it to force rollbacks.
	failSave error
}

func NewInMemory() *InMemory {
	return &InMemory{learners: make(map[id.LearnerID]*models.Learner)}
}

func (s *InMemory) Create(_ context.Context, l *models.Learner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.learners[l.ID]; ok {
		return sentinel.ErrConflict
	}
	s.learners[l.ID] = l.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, learnerID id.LearnerID) (*models.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.learners[learnerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, l *models.Learner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	if _, ok := s.learners[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.learners[l.ID] = l.Clone()
	return nil
}

// FailSaves makes every subsequent Save return err; nil restores normal behaviour.
func (s *InMemory) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	saved := maps.Clone(s.learners)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.learners = saved
		s.mu.Unlock()
	}
}
