package timeline

import (
	"context"
	"maps"
	"slices"
	"sync"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
)

// InMemory is an append-only timeline. Events cannot be edited
// or removed.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.TransferID][]models.TimelineEvent
	seq    int64
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.TransferID][]models.TimelineEvent)}
}

func (s *InMemory) Append(_ context.Context, e *models.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.Seq = s.seq
	stored := *e
	stored.EventData = maps.Clone(e.EventData)
	s.events[e.TransferID] = append(s.events[e.TransferID], stored)
	return nil
}

// ListByTransfer returns events oldest first, ties broken by append order.
func (s *InMemory) ListByTransfer(_ context.Context, transferID id.TransferID) ([]*models.TimelineEvent, error) {
	s.mu.RLock()
	stored := s.events[transferID]
	out := make([]*models.TimelineEvent, 0, len(stored))
	for i := range stored {
		e := stored[i]
		e.EventData = maps.Clone(stored[i].EventData)
		out = append(out, &e)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *models.TimelineEvent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return int(a.Seq - b.Seq)
	})
	return out, nil
}

func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[id.TransferID][]models.TimelineEvent, len(s.events))
	for k, v := range s.events {
		saved[k] = slices.Clone(v)
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.events = saved
		s.mu.Unlock()
	}
}
