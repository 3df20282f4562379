package handler

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /applications.
// Money fields accept JSON numbers or numeric strings; decimal.Decimal
// handles both and avoids float drift on amounts.
type SubmitRequest struct {
	LoanType        string          `json:"loan_type"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	TenureMonths    int             `json:"tenure_months"`
	Purpose         string          `json:"purpose"`
	AnnualIncome    decimal.Decimal `json:"annual_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	ExistingDebts   decimal.Decimal `json:"existing_debts"`
	CreditScore     int             `json:"credit_score"`
	EmploymentType  string          `json:"employment_type"`
	EmploymentYears int             `json:"employment_years"`
	ApplicantName   string          `json:"applicant_name"`
	Phone           string          `json:"phone"`

	// Parsed values (populated by Validate)
	parsedLoanType       domain.LoanType
	parsedEmploymentType domain.EmploymentType
}

// Validate validates and parses the request.
// Implements the Validator interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	r.ApplicantName = strings.TrimSpace(r.ApplicantName)
	if r.ApplicantName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "applicant_name is required")
	}
	if len(r.ApplicantName) > 200 {
		return dErrors.New(dErrors.CodeInvalidInput, "applicant_name must be at most 200 characters")
	}
	r.Phone = strings.TrimSpace(r.Phone)

	loanType, err := domain.ParseLoanType(r.LoanType)
	if err != nil {
		return err
	}
	r.parsedLoanType = loanType

	employmentType, err := domain.ParseEmploymentType(r.EmploymentType)
	if err != nil {
		return err
	}
	r.parsedEmploymentType = employmentType

	if !r.LoanAmount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "loan_amount must be positive")
	}
	if r.TenureMonths < models.MinTenureMonths {
		return dErrors.Newf(dErrors.CodeInvalidInput, "tenure_months must be at least %d", models.MinTenureMonths)
	}
	if r.AnnualIncome.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "annual_income must not be negative")
	}
	if r.MonthlyExpenses.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "monthly_expenses must not be negative")
	}
	if r.ExistingDebts.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "existing_debts must not be negative")
	}
	if r.CreditScore < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credit_score must not be negative")
	}
	if r.EmploymentYears < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "employment_years must not be negative")
	}

	r.Purpose = strings.TrimSpace(r.Purpose)
	return nil
}

// ParsedLoanType returns the validated loan type.
func (r *SubmitRequest) ParsedLoanType() domain.LoanType {
	return r.parsedLoanType
}

// ParsedEmploymentType returns the validated employment type.
func (r *SubmitRequest) ParsedEmploymentType() domain.EmploymentType {
	return r.parsedEmploymentType
}

// UpdateRequest is the HTTP request body for PUT /applications/{id}. It
// carries the full editable profile; partial updates are not supported.
type UpdateRequest struct {
	LoanType        string          `json:"loan_type"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	TenureMonths    int             `json:"tenure_months"`
	Purpose         string          `json:"purpose"`
	AnnualIncome    decimal.Decimal `json:"annual_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	ExistingDebts   decimal.Decimal `json:"existing_debts"`
	CreditScore     int             `json:"credit_score"`
	EmploymentType  string          `json:"employment_type"`
	EmploymentYears int             `json:"employment_years"`

	parsedLoanType       domain.LoanType
	parsedEmploymentType domain.EmploymentType
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	loanType, err := domain.ParseLoanType(r.LoanType)
	if err != nil {
		return err
	}
	r.parsedLoanType = loanType

	employmentType, err := domain.ParseEmploymentType(r.EmploymentType)
	if err != nil {
		return err
	}
	r.parsedEmploymentType = employmentType

	r.Purpose = strings.TrimSpace(r.Purpose)
	return nil
}

// Attributes returns the validated update set. Range checks beyond enum
// parsing happen in the aggregate so the rules live in one place.
func (r *UpdateRequest) Attributes() models.Attributes {
	return models.Attributes{
		LoanType:        r.parsedLoanType,
		LoanAmount:      r.LoanAmount,
		TenureMonths:    r.TenureMonths,
		Purpose:         r.Purpose,
		AnnualIncome:    r.AnnualIncome,
		MonthlyExpenses: r.MonthlyExpenses,
		ExistingDebts:   r.ExistingDebts,
		CreditScore:     r.CreditScore,
		EmploymentType:  r.parsedEmploymentType,
		EmploymentYears: r.EmploymentYears,
	}
}

// RejectRequest is the HTTP request body for POST /applications/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}

// NoteRequest is the HTTP request body for POST /applications/{id}/notes.
type NoteRequest struct {
	Note string `json:"note"`
}

func (r *NoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Note = strings.TrimSpace(r.Note)
	if r.Note == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "note is required")
	}
	return nil
}

// AnalysisRequest is the HTTP request body for POST /applications/{id}/analysis.
// Suggestions are stored verbatim and never interpreted server-side.
type AnalysisRequest struct {
	Explanation string          `json:"explanation"`
	Suggestions json.RawMessage `json:"suggestions"`
}

func (r *AnalysisRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Explanation = strings.TrimSpace(r.Explanation)
	if r.Explanation == "" && len(r.Suggestions) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "explanation or suggestions is required")
	}
	return nil
}
