// Package store persists loan applications. Two implementations share one
// contract: an in-memory store for tests and single-node deployments, and a
// Postgres store for production.
package store

import (
	"context"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	Status      *domain.LoanStatus
	ApplicantID *domain.UserID
	LoanType    *domain.LoanType
}

// Stats are the aggregate counts powering the dashboard.
type Stats struct {
	Total               int
	ByStatus            map[domain.LoanStatus]int
	AverageDecisionTime time.Duration
}

// Store is the persistence contract for loan applications.
//
// Execute is the compare-and-set primitive every lifecycle transition goes
// through: the store loads the application, rejects with sentinel.ErrConflict
// when its current status no longer matches expect, runs validate, applies
// mutate, and persists - all while holding the record lock (mutex or
// SELECT ... FOR UPDATE). A concurrent transition therefore loses cleanly
// instead of clobbering.
type Store interface {
	// Create persists a new application.
	// Returns sentinel.ErrConflict when the ID or reference already exists.
	Create(ctx context.Context, app *models.LoanApplication) error

	// FindByID returns the application or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)

	// FindByReference resolves a human-readable reference ("LA-...").
	FindByReference(ctx context.Context, reference string) (*models.LoanApplication, error)

	// List returns applications matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*models.LoanApplication, error)

	// Execute atomically validates and mutates the application identified by
	// id, provided its status still equals expect. Returns the updated
	// application on success.
	Execute(
		ctx context.Context,
		id domain.ApplicationID,
		expect domain.LoanStatus,
		validate func(*models.LoanApplication) error,
		mutate func(*models.LoanApplication),
	) (*models.LoanApplication, error)

	// Stats computes dashboard aggregates in one pass.
	Stats(ctx context.Context) (*Stats, error)
}
