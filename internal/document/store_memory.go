package document

import (
	"context"
	"sort"
	"sync"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
)

// InMemoryStore keeps document metadata in memory. Used in tests and when no
// database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[domain.DocumentID]*Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[domain.DocumentID]*Document),
	}
}

func (s *InMemoryStore) Add(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.documents[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DocumentID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID domain.ApplicationID) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Document
	for _, doc := range s.documents {
		if doc.ApplicationID == applicationID {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.documents[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryStore) Counts(_ context.Context, applicationID domain.ApplicationID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, verified int
	for _, doc := range s.documents {
		if doc.ApplicationID != applicationID {
			continue
		}
		total++
		if doc.Verified {
			verified++
		}
	}
	return total, verified, nil
}
