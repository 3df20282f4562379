package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
)

type ApplicationStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *ApplicationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestApplicationStoreSuite(t *testing.T) {
	suite.Run(t, new(ApplicationStoreSuite))
}

func (s *ApplicationStoreSuite) newApplication() *models.LoanApplication {
	app, err := models.NewLoanApplication(
		domain.NewUserID(),
		"Test Applicant",
		"applicant@example.test",
		"+91-98100-00000",
		models.Attributes{
			LoanType:        domain.LoanTypePersonal,
			LoanAmount:      decimal.NewFromInt(40_000),
			TenureMonths:    36,
			Purpose:         "renovation",
			AnnualIncome:    decimal.NewFromInt(120_000),
			MonthlyExpenses: decimal.NewFromInt(2_000),
			ExistingDebts:   decimal.NewFromInt(12_000),
			CreditScore:     720,
			EmploymentType:  domain.EmploymentSalaried,
			EmploymentYears: 5,
		},
		time.Now(),
	)
	s.Require().NoError(err)
	return app
}

func (s *ApplicationStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID", func() {
		app := s.newApplication()
		s.Require().NoError(s.store.Create(s.ctx, app))

		found, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.Reference, found.Reference)
	})

	s.Run("finds by reference case-insensitively", func() {
		app := s.newApplication()
		s.Require().NoError(s.store.Create(s.ctx, app))

		found, err := s.store.FindByReference(s.ctx, app.Reference)
		s.Require().NoError(err)
		s.Equal(app.ID, found.ID)

		lower, err := s.store.FindByReference(s.ctx, "la-"+app.Reference[3:])
		s.Require().NoError(err)
		s.Equal(app.ID, lower.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewApplicationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		app := s.newApplication()
		s.Require().NoError(s.store.Create(s.ctx, app))
		s.Require().ErrorIs(s.store.Create(s.ctx, app), sentinel.ErrConflict)
	})
}

func (s *ApplicationStoreSuite) TestReadsDoNotAliasStoreState() {
	app := s.newApplication()
	s.Require().NoError(s.store.Create(s.ctx, app))

	found, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	found.ApplicantName = "Mutated"

	again, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("Test Applicant", again.ApplicantName)
}

func (s *ApplicationStoreSuite) TestList() {
	customer := domain.NewUserID()
	first := s.newApplication()
	first.ApplicantID = customer
	second := s.newApplication()
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.ApplyReviewRequest("officer@bank.test", second.CreatedAt)

	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	s.Run("returns newest first", func() {
		all, err := s.store.List(s.ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(second.ID, all[0].ID)
	})

	s.Run("filters by status", func() {
		status := domain.StatusManualReview
		got, err := s.store.List(s.ctx, Filter{Status: &status})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(second.ID, got[0].ID)
	})

	s.Run("filters by applicant", func() {
		got, err := s.store.List(s.ctx, Filter{ApplicantID: &customer})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(first.ID, got[0].ID)
	})
}

func (s *ApplicationStoreSuite) TestExecute() {
	s.Run("applies mutation when status matches", func() {
		app := s.newApplication()
		s.Require().NoError(s.store.Create(s.ctx, app))

		updated, err := s.store.Execute(s.ctx, app.ID, domain.StatusPending,
			func(a *models.LoanApplication) error { return a.CanApprove() },
			func(a *models.LoanApplication) { a.ApplyApproval("officer@bank.test", time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, updated.Status)

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, stored.Status)
	})

	s.Run("returns ErrConflict when expected status is stale", func() {
		app := s.newApplication()
		s.Require().NoError(s.store.Create(s.ctx, app))

		_, err := s.store.Execute(s.ctx, app.ID, domain.StatusManualReview,
			func(a *models.LoanApplication) error { return nil },
			func(a *models.LoanApplication) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("validation failure leaves record untouched", func() {
		app := s.newApplication()
		app.ApplyApproval("officer@bank.test", time.Now())
		s.Require().NoError(s.store.Create(s.ctx, app))

		_, err := s.store.Execute(s.ctx, app.ID, domain.StatusApproved,
			func(a *models.LoanApplication) error { return a.CanReject("no") },
			func(a *models.LoanApplication) { a.ApplyRejection("no", "x", time.Now()) },
		)
		s.Require().Error(err)

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, stored.Status)
	})
}

// TestExecute_ConcurrentDeciders races an approval against a rejection.
// Exactly one transition must win; the loser sees ErrConflict.
func (s *ApplicationStoreSuite) TestExecute_ConcurrentDeciders() {
	app := s.newApplication()
	s.Require().NoError(s.store.Create(s.ctx, app))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, errs[0] = s.store.Execute(s.ctx, app.ID, domain.StatusPending,
			func(a *models.LoanApplication) error { return a.CanApprove() },
			func(a *models.LoanApplication) { a.ApplyApproval("officer@bank.test", time.Now()) },
		)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, errs[1] = s.store.Execute(s.ctx, app.ID, domain.StatusPending,
			func(a *models.LoanApplication) error { return a.CanReject("income") },
			func(a *models.LoanApplication) { a.ApplyRejection("income", "admin@bank.test", time.Now()) },
		)
	}()
	close(start)
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			failures++
		}
	}
	s.Equal(1, failures, "exactly one of two concurrent transitions must lose")

	stored, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.True(stored.Status.IsTerminal())
}

func (s *ApplicationStoreSuite) TestStats() {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	pending := s.newApplication()
	pending.CreatedAt = base

	approved := s.newApplication()
	approved.CreatedAt = base
	approved.ApplyApproval("officer@bank.test", base.Add(2*time.Hour))

	rejected := s.newApplication()
	rejected.CreatedAt = base
	rejected.ApplyRejection("dti too high", "officer@bank.test", base.Add(4*time.Hour))

	for _, app := range []*models.LoanApplication{pending, approved, rejected} {
		s.Require().NoError(s.store.Create(s.ctx, app))
	}

	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(1, stats.ByStatus[domain.StatusPending])
	s.Equal(1, stats.ByStatus[domain.StatusApproved])
	s.Equal(1, stats.ByStatus[domain.StatusRejected])
	s.Equal(3*time.Hour, stats.AverageDecisionTime)
}
