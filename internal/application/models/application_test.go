package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func healthyAttributes() Attributes {
	return Attributes{
		LoanType:        domain.LoanTypePersonal,
		LoanAmount:      decimal.NewFromInt(40_000),
		TenureMonths:    36,
		Purpose:         "home renovation",
		AnnualIncome:    decimal.NewFromInt(120_000),
		MonthlyExpenses: decimal.NewFromInt(2_000),
		ExistingDebts:   decimal.NewFromInt(12_000),
		CreditScore:     720,
		EmploymentType:  domain.EmploymentSalaried,
		EmploymentYears: 5,
	}
}

func newApplication(t *testing.T) *LoanApplication {
	t.Helper()
	app, err := NewLoanApplication(
		domain.NewUserID(),
		"Asha Kumar",
		"asha@example.test",
		"+91-98100-00000",
		healthyAttributes(),
		now,
	)
	require.NoError(t, err)
	return app
}

func TestNewLoanApplication(t *testing.T) {
	app := newApplication(t)

	assert.Equal(t, domain.StatusPending, app.Status)
	assert.False(t, app.ID.IsNil())
	assert.True(t, strings.HasPrefix(app.Reference, "LA-"))
	assert.Len(t, app.Reference, 11)
	assert.Nil(t, app.RiskScore)
	assert.Nil(t, app.ReviewedAt)
	assert.Equal(t, now, app.CreatedAt)
}

func TestNewLoanApplication_Validation(t *testing.T) {
	build := func(attrs Attributes) (*LoanApplication, error) {
		return NewLoanApplication(domain.NewUserID(), "A", "a@x.test", "", attrs, now)
	}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.LoanAmount = decimal.Zero
		_, err := build(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative income", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.AnnualIncome = decimal.NewFromInt(-1)
		_, err := build(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative debts", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.ExistingDebts = decimal.NewFromInt(-1)
		_, err := build(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown loan type", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.LoanType = "payday"
		_, err := build(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects term below twelve months", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.TenureMonths = 11
		_, err := build(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		attrs.TenureMonths = MinTenureMonths
		_, err = build(attrs)
		require.NoError(t, err)
	})

	t.Run("allows zero income", func(t *testing.T) {
		attrs := healthyAttributes()
		attrs.AnnualIncome = decimal.Zero
		attrs.MonthlyExpenses = decimal.Zero
		attrs.ExistingDebts = decimal.Zero
		attrs.EmploymentType = domain.EmploymentRetired
		attrs.EmploymentYears = 0
		app, err := build(attrs)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, app.Status)
	})
}

func TestLoanApplication_Approval(t *testing.T) {
	app := newApplication(t)

	require.NoError(t, app.CanApprove())
	app.ApplyApproval("officer@bank.test", now.Add(time.Hour))

	assert.Equal(t, domain.StatusApproved, app.Status)
	assert.Equal(t, "officer@bank.test", app.ReviewedBy)
	require.NotNil(t, app.ReviewedAt)
	assert.Equal(t, now.Add(time.Hour), *app.ReviewedAt)

	// Terminal: nothing moves anymore, and the refusal names the application.
	err := app.CanApprove()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
	assert.Contains(t, err.Error(), app.Reference)
	err = app.CanReject("change of heart")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
	err = app.CanAddNote("too late")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
}

func TestLoanApplication_Rejection(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		app := newApplication(t)
		err := app.CanReject("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("records reason and reviewer", func(t *testing.T) {
		app := newApplication(t)
		require.NoError(t, app.CanReject("insufficient income"))
		app.ApplyRejection("insufficient income", "admin@bank.test", now)

		assert.Equal(t, domain.StatusRejected, app.Status)
		assert.Equal(t, "insufficient income", app.RejectionReason)
		assert.Equal(t, "admin@bank.test", app.ReviewedBy)
	})
}

func TestLoanApplication_ReviewRequest(t *testing.T) {
	app := newApplication(t)

	require.NoError(t, app.CanRequestReview())
	app.ApplyReviewRequest("officer@bank.test", now)
	assert.Equal(t, domain.StatusManualReview, app.Status)
	assert.Equal(t, "officer@bank.test", app.AssignedOfficer)

	// Pulling an application for review is not a decision.
	assert.Empty(t, app.ReviewedBy)
	assert.Nil(t, app.ReviewedAt)

	// Review is requested once; manual_review has no edge back to itself.
	err := app.CanRequestReview()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))

	// But it can still be decided.
	require.NoError(t, app.CanApprove())
}

func TestLoanApplication_ReviewStampSetOnce(t *testing.T) {
	app := newApplication(t)
	app.ApplyReviewRequest("officer@bank.test", now)
	app.ApplyApproval("first@bank.test", now.Add(time.Hour))

	// A second stamp must not overwrite the first reviewer.
	app.stampReview("second@bank.test", now.Add(2*time.Hour))
	assert.Equal(t, "first@bank.test", app.ReviewedBy)
	assert.Equal(t, now.Add(time.Hour), *app.ReviewedAt)
}

func TestLoanApplication_Notes(t *testing.T) {
	app := newApplication(t)

	require.NoError(t, app.CanAddNote("called applicant"))
	app.ApplyNote("called applicant", "officer@bank.test", now)
	app.ApplyNote("income verified", "admin@bank.test", now.Add(time.Minute))

	lines := strings.Split(app.Notes, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2025-06-01T10:00:00Z by officer@bank.test]: called applicant", lines[0])
	assert.Equal(t, "[2025-06-01T10:01:00Z by admin@bank.test]: income verified", lines[1])

	err := app.CanAddNote("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestLoanApplication_AssessmentIsAdvisory(t *testing.T) {
	app := newApplication(t)
	assessment, err := risk.Evaluate(app.RiskInputs(0, 0))
	require.NoError(t, err)

	app.ApplyAssessment(assessment, now)

	require.NotNil(t, app.RiskScore)
	assert.Equal(t, 16, *app.RiskScore)
	assert.Equal(t, risk.RecommendApprove, app.Recommendation)
	// Scoring never moves the status.
	assert.Equal(t, domain.StatusPending, app.Status)
}

func TestAuthorize(t *testing.T) {
	cases := []struct {
		transition Transition
		role       domain.Role
		allowed    bool
	}{
		{TransitionSubmit, domain.RoleCustomer, true},
		{TransitionSubmit, domain.RoleOfficer, false},
		{TransitionApprove, domain.RoleOfficer, true},
		{TransitionApprove, domain.RoleAdmin, true},
		{TransitionApprove, domain.RoleCustomer, false},
		{TransitionReject, domain.RoleAdmin, true},
		{TransitionReject, domain.RoleCustomer, false},
		{TransitionRequestReview, domain.RoleOfficer, true},
		{TransitionRequestReview, domain.RoleCustomer, false},
		{TransitionAddNotes, domain.RoleOfficer, true},
		{TransitionAddNotes, domain.RoleCustomer, false},
	}
	for _, tc := range cases {
		err := Authorize(tc.transition, tc.role)
		if tc.allowed {
			assert.NoError(t, err, "%s as %s", tc.transition, tc.role)
		} else {
			require.Error(t, err, "%s as %s", tc.transition, tc.role)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
		}
	}
}

func TestLoanApplication_Update(t *testing.T) {
	attrs := Attributes{
		LoanType:        domain.LoanTypeAuto,
		LoanAmount:      decimal.NewFromInt(25_000),
		TenureMonths:    24,
		Purpose:         "used car",
		AnnualIncome:    decimal.NewFromInt(110_000),
		MonthlyExpenses: decimal.NewFromInt(1_800),
		ExistingDebts:   decimal.NewFromInt(8_400),
		CreditScore:     700,
		EmploymentType:  domain.EmploymentSalaried,
		EmploymentYears: 4,
	}

	t.Run("pending application accepts edits", func(t *testing.T) {
		app := newApplication(t)
		require.NoError(t, app.CanUpdate(attrs))

		later := now.Add(time.Hour)
		app.ApplyUpdate(attrs, later)
		assert.Equal(t, domain.LoanTypeAuto, app.LoanType)
		assert.True(t, app.LoanAmount.Equal(decimal.NewFromInt(25_000)))
		assert.True(t, app.MonthlyExpenses.Equal(decimal.NewFromInt(1_800)))
		assert.True(t, app.ExistingDebts.Equal(decimal.NewFromInt(8_400)))
		assert.Equal(t, later, app.UpdatedAt)
		assert.Equal(t, now, app.CreatedAt)
	})

	t.Run("manual review freezes edits", func(t *testing.T) {
		app := newApplication(t)
		app.ApplyReviewRequest("officer@bank.test", now)
		err := app.CanUpdate(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
		assert.Contains(t, err.Error(), app.Reference)
	})

	t.Run("terminal state freezes edits", func(t *testing.T) {
		app := newApplication(t)
		app.ApplyApproval("officer@bank.test", now)
		err := app.CanUpdate(attrs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransitionRejected))
	})

	t.Run("invalid attributes rejected", func(t *testing.T) {
		app := newApplication(t)
		bad := attrs
		bad.LoanAmount = decimal.Zero
		err := app.CanUpdate(bad)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestLoanApplication_Clone(t *testing.T) {
	app := newApplication(t)
	assessment, err := risk.Evaluate(app.RiskInputs(0, 0))
	require.NoError(t, err)
	app.ApplyAssessment(assessment, now)

	cp := app.Clone()
	cp.ApplyNote("mutating the copy", "officer@bank.test", now)
	*cp.RiskScore = 99
	cp.RiskFactors[0].Score = 99

	assert.Empty(t, app.Notes)
	assert.Equal(t, 16, *app.RiskScore)
	assert.NotEqual(t, 99.0, app.RiskFactors[0].Score)
}
