package audit

import (
	"context"
	"sync"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
)

// InMemoryStore keeps the trail in memory, in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, id domain.ApplicationID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.ApplicationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
