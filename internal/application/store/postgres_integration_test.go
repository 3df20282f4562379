//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/migrations"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())

	ddl, err := migrations.Schema()
	s.Require().NoError(err)
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), ddl))

	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "loan_applications"))
}

func (s *PostgresStoreSuite) newApplication() *models.LoanApplication {
	app, err := models.NewLoanApplication(
		domain.NewUserID(),
		"Integration Applicant",
		"applicant@example.test",
		"+91-98100-11111",
		models.Attributes{
			LoanType:        domain.LoanTypeHome,
			LoanAmount:      decimal.NewFromInt(250_000),
			TenureMonths:    240,
			Purpose:         "house purchase",
			AnnualIncome:    decimal.NewFromInt(90_000),
			MonthlyExpenses: decimal.NewFromInt(1_000),
			ExistingDebts:   decimal.NewFromInt(6_000),
			CreditScore:     690,
			EmploymentType:  domain.EmploymentSalaried,
			EmploymentYears: 8,
		},
		time.Now().UTC().Truncate(time.Microsecond),
	)
	s.Require().NoError(err)
	return app
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	app := s.newApplication()

	assessment, err := risk.Evaluate(app.RiskInputs(0, 0))
	s.Require().NoError(err)
	app.ApplyAssessment(assessment, app.CreatedAt)

	s.Require().NoError(s.store.Create(ctx, app))

	found, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.Reference, found.Reference)
	s.Equal(app.Status, found.Status)
	s.Require().NotNil(found.RiskScore)
	s.Equal(*app.RiskScore, *found.RiskScore)
	s.Len(found.RiskFactors, len(app.RiskFactors))
	s.True(app.LoanAmount.Equal(found.LoanAmount))
	s.True(app.MonthlyExpenses.Equal(found.MonthlyExpenses))
	s.True(app.ExistingDebts.Equal(found.ExistingDebts))
	s.Equal(app.ApplicantPhone, found.ApplicantPhone)

	byRef, err := s.store.FindByReference(ctx, app.Reference)
	s.Require().NoError(err)
	s.Equal(app.ID, byRef.ID)
}

func (s *PostgresStoreSuite) TestDuplicateCreateConflicts() {
	ctx := context.Background()
	app := s.newApplication()
	s.Require().NoError(s.store.Create(ctx, app))
	s.Require().ErrorIs(s.store.Create(ctx, app), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestExecute_StaleStatusConflicts() {
	ctx := context.Background()
	app := s.newApplication()
	s.Require().NoError(s.store.Create(ctx, app))

	_, err := s.store.Execute(ctx, app.ID, domain.StatusManualReview,
		func(a *models.LoanApplication) error { return nil },
		func(a *models.LoanApplication) {},
	)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestExecute_ConcurrentDeciders verifies the FOR UPDATE lock serializes
// concurrent transitions: exactly one wins, the rest conflict.
func (s *PostgresStoreSuite) TestExecute_ConcurrentDeciders() {
	ctx := context.Background()
	app := s.newApplication()
	s.Require().NoError(s.store.Create(ctx, app))

	const deciders = 8
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, app.ID, domain.StatusPending,
				func(a *models.LoanApplication) error { return a.CanApprove() },
				func(a *models.LoanApplication) { a.ApplyApproval("officer@bank.test", time.Now().UTC()) },
			)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one transition should win")
	s.Equal(int32(deciders-1), conflicts.Load())

	stored, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, stored.Status)
	s.Equal("officer@bank.test", stored.ReviewedBy)
}

func (s *PostgresStoreSuite) TestExecute_PersistsReviewAssignment() {
	ctx := context.Background()
	app := s.newApplication()
	s.Require().NoError(s.store.Create(ctx, app))

	_, err := s.store.Execute(ctx, app.ID, domain.StatusPending,
		func(a *models.LoanApplication) error { return a.CanRequestReview() },
		func(a *models.LoanApplication) { a.ApplyReviewRequest("officer@bank.test", time.Now().UTC()) },
	)
	s.Require().NoError(err)

	stored, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusManualReview, stored.Status)
	s.Equal("officer@bank.test", stored.AssignedOfficer)
	s.Empty(stored.ReviewedBy)
}

func (s *PostgresStoreSuite) TestStats() {
	ctx := context.Background()

	approved := s.newApplication()
	approved.ApplyApproval("officer@bank.test", approved.CreatedAt.Add(time.Hour))
	pending := s.newApplication()

	s.Require().NoError(s.store.Create(ctx, approved))
	s.Require().NoError(s.store.Create(ctx, pending))

	stats, err := s.store.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(1, stats.ByStatus[domain.StatusApproved])
	s.Equal(1, stats.ByStatus[domain.StatusPending])
	s.InDelta(time.Hour.Seconds(), stats.AverageDecisionTime.Seconds(), 1)
}
