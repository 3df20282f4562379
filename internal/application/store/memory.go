package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in a map guarded by a RWMutex. Reads and
// writes always go through Clone so callers never alias store state.
type InMemoryStore struct {
	mu           sync.RWMutex
	applications map[domain.ApplicationID]*models.LoanApplication
	byReference  map[string]domain.ApplicationID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		applications: make(map[domain.ApplicationID]*models.LoanApplication),
		byReference:  make(map[string]domain.ApplicationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.LoanApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.applications[app.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byReference[app.Reference]; exists {
		return sentinel.ErrConflict
	}
	s.applications[app.ID] = app.Clone()
	s.byReference[app.Reference] = app.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, exists := s.applications[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) FindByReference(_ context.Context, reference string) (*models.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byReference[strings.ToUpper(reference)]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return s.applications[id].Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.LoanApplication
	for _, app := range s.applications {
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		if filter.ApplicantID != nil && app.ApplicantID != *filter.ApplicantID {
			continue
		}
		if filter.LoanType != nil && app.LoanType != *filter.LoanType {
			continue
		}
		out = append(out, app.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Reference > out[j].Reference
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Execute holds the write lock across validate and mutate so the
// compare-and-set is atomic with respect to concurrent transitions.
func (s *InMemoryStore) Execute(
	_ context.Context,
	id domain.ApplicationID,
	expect domain.LoanStatus,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
) (*models.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.applications[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if stored.Status != expect {
		return nil, sentinel.ErrConflict
	}

	// Work on a copy; the stored record only changes if everything succeeds.
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)

	s.applications[id] = working
	return working.Clone(), nil
}

func (s *InMemoryStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		ByStatus: make(map[domain.LoanStatus]int),
	}
	var decided int
	var totalDecision time.Duration
	for _, app := range s.applications {
		stats.Total++
		stats.ByStatus[app.Status]++
		if app.ReviewedAt != nil {
			decided++
			totalDecision += app.ReviewedAt.Sub(app.CreatedAt)
		}
	}
	if decided > 0 {
		stats.AverageDecisionTime = totalDecision / time.Duration(decided)
	}
	return stats, nil
}
