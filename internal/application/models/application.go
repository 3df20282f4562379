package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// LoanApplication is the aggregate root for a loan application.
//
// Invariants:
//   - LoanAmount is positive and the term is at least twelve months;
//     AnnualIncome, MonthlyExpenses and ExistingDebts are non-negative
//   - Status transitions follow domain.LoanStatus.CanTransitionTo
//   - approved and rejected are terminal; a terminal application never
//     changes again (notes included)
//   - ReviewedBy and ReviewedAt are set exactly once, on the transition
//     into a terminal state; AssignedOfficer is set when review is requested
//   - A rejection always carries a non-empty reason
//   - The risk assessment is advisory: no status change ever happens as a
//     side effect of scoring
type LoanApplication struct {
	ID        domain.ApplicationID `json:"id"`
	Reference string               `json:"reference"`

	ApplicantID    domain.UserID `json:"applicant_id"`
	ApplicantName  string        `json:"applicant_name"`
	ApplicantEmail string        `json:"applicant_email"`
	ApplicantPhone string        `json:"applicant_phone,omitempty"`

	LoanType        domain.LoanType       `json:"loan_type"`
	LoanAmount      decimal.Decimal       `json:"loan_amount"`
	TenureMonths    int                   `json:"tenure_months"`
	Purpose         string                `json:"purpose"`
	AnnualIncome    decimal.Decimal       `json:"annual_income"`
	MonthlyExpenses decimal.Decimal       `json:"monthly_expenses"`
	ExistingDebts   decimal.Decimal       `json:"existing_debts"`
	CreditScore     int                   `json:"credit_score"`
	EmploymentType  domain.EmploymentType `json:"employment_type"`
	EmploymentYears int                   `json:"employment_years"`

	Status domain.LoanStatus `json:"status"`

	// Advisory risk assessment, refreshed on submission and re-scoring.
	RiskScore      *int                `json:"risk_score,omitempty"`
	RiskFactors    []risk.Factor       `json:"risk_factors,omitempty"`
	Recommendation risk.Recommendation `json:"recommendation,omitempty"`
	DTIRatio       float64             `json:"dti_ratio"`
	LTIRatio       float64             `json:"lti_ratio"`

	// Opaque AI annotations. Stored and served verbatim; nothing in the
	// lifecycle reads them.
	AIExplanation string          `json:"ai_explanation,omitempty"`
	AISuggestions json.RawMessage `json:"ai_suggestions,omitempty"`

	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	AssignedOfficer string     `json:"assigned_officer,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attributes is the applicant-supplied loan and financial profile: the fields
// that feed the risk engine, set at submission and replaced wholesale by a
// pre-decision update so a re-score always sees a consistent profile.
type Attributes struct {
	LoanType        domain.LoanType
	LoanAmount      decimal.Decimal
	TenureMonths    int
	Purpose         string
	AnnualIncome    decimal.Decimal
	MonthlyExpenses decimal.Decimal
	ExistingDebts   decimal.Decimal
	CreditScore     int
	EmploymentType  domain.EmploymentType
	EmploymentYears int
}

func (attrs Attributes) validate() error {
	if !attrs.LoanType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid loan type %q", string(attrs.LoanType))
	}
	if !attrs.LoanAmount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "loan amount must be positive")
	}
	if attrs.TenureMonths < MinTenureMonths {
		return dErrors.Newf(dErrors.CodeInvalidInput, "loan term must be at least %d months", MinTenureMonths)
	}
	if attrs.AnnualIncome.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "annual income cannot be negative")
	}
	if attrs.MonthlyExpenses.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "monthly expenses cannot be negative")
	}
	if attrs.ExistingDebts.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "existing debts cannot be negative")
	}
	if attrs.CreditScore < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credit score cannot be negative")
	}
	if !attrs.EmploymentType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid employment type %q", string(attrs.EmploymentType))
	}
	if attrs.EmploymentYears < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "employment years cannot be negative")
	}
	return nil
}

// MinTenureMonths is the shortest loan term the bank writes.
const MinTenureMonths = 12

// NewLoanApplication constructs a pending application after enforcing the
// aggregate invariants. The risk assessment is attached separately by the
// service once the engine has run.
func NewLoanApplication(
	applicantID domain.UserID,
	applicantName, applicantEmail, applicantPhone string,
	attrs Attributes,
	now time.Time,
) (*LoanApplication, error) {
	if applicantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "applicant id is required")
	}
	if applicantName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "applicant name cannot be empty")
	}
	if err := attrs.validate(); err != nil {
		return nil, err
	}

	id := domain.NewApplicationID()
	app := &LoanApplication{
		ID:             id,
		Reference:      referenceFor(id),
		ApplicantID:    applicantID,
		ApplicantName:  applicantName,
		ApplicantEmail: applicantEmail,
		ApplicantPhone: applicantPhone,
		Status:         domain.StatusPending,
		CreatedAt:      now,
	}
	app.ApplyUpdate(attrs, now)
	return app, nil
}

// referenceFor derives the human-readable reference from the application ID.
// Stable for a given ID, unique as long as IDs are.
func referenceFor(id domain.ApplicationID) string {
	compact := strings.ReplaceAll(id.String(), "-", "")
	return "LA-" + strings.ToUpper(compact[:8])
}

// RiskInputs builds the engine inputs from the applicant profile.
func (a *LoanApplication) RiskInputs(documentsTotal, documentsVerified int) risk.Inputs {
	return risk.Inputs{
		LoanAmount:        a.LoanAmount,
		AnnualIncome:      a.AnnualIncome,
		MonthlyExpenses:   a.MonthlyExpenses,
		ExistingDebts:     a.ExistingDebts,
		CreditScore:       a.CreditScore,
		EmploymentType:    a.EmploymentType,
		EmploymentYears:   a.EmploymentYears,
		DocumentsTotal:    documentsTotal,
		DocumentsVerified: documentsVerified,
	}
}

// ApplyAssessment attaches a fresh advisory assessment. Allowed in any
// non-terminal state; never touches Status.
func (a *LoanApplication) ApplyAssessment(assessment *risk.Assessment, now time.Time) {
	score := assessment.Score
	a.RiskScore = &score
	a.RiskFactors = assessment.Factors
	a.Recommendation = risk.Recommend(score)
	a.DTIRatio = assessment.DTIRatio
	a.LTIRatio = assessment.LTIRatio
	a.UpdatedAt = now
}

// CanUpdate checks that the applicant may still edit the application. Edits
// are only allowed while the application is pending; once an officer is
// involved the record is frozen for the applicant.
func (a *LoanApplication) CanUpdate(attrs Attributes) error {
	if a.Status != domain.StatusPending {
		if a.Status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is %s and can no longer be modified", a.Reference, a.Status)
		}
		return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is under %s and cannot be edited", a.Reference, a.Status)
	}
	return attrs.validate()
}

// ApplyUpdate replaces the applicant-editable profile. Call CanUpdate first;
// the caller re-scores afterwards so the assessment tracks the new profile.
func (a *LoanApplication) ApplyUpdate(attrs Attributes, now time.Time) {
	a.LoanType = attrs.LoanType
	a.LoanAmount = attrs.LoanAmount
	a.TenureMonths = attrs.TenureMonths
	a.Purpose = attrs.Purpose
	a.AnnualIncome = attrs.AnnualIncome
	a.MonthlyExpenses = attrs.MonthlyExpenses
	a.ExistingDebts = attrs.ExistingDebts
	a.CreditScore = attrs.CreditScore
	a.EmploymentType = attrs.EmploymentType
	a.EmploymentYears = attrs.EmploymentYears
	a.UpdatedAt = now
}

// CanApprove checks if the application can transition to approved.
// Use with ApplyApproval in Execute callbacks.
func (a *LoanApplication) CanApprove() error {
	return a.canTransitionTo(domain.StatusApproved)
}

// ApplyApproval transitions the application to approved and stamps the
// reviewer. Call CanApprove first to validate the transition.
func (a *LoanApplication) ApplyApproval(reviewer string, now time.Time) {
	a.Status = domain.StatusApproved
	a.stampReview(reviewer, now)
}

// CanReject checks if the application can transition to rejected with the
// given reason. Use with ApplyRejection in Execute callbacks.
func (a *LoanApplication) CanReject(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "rejection reason cannot be empty")
	}
	return a.canTransitionTo(domain.StatusRejected)
}

// ApplyRejection transitions the application to rejected, records the reason
// and stamps the reviewer. Call CanReject first to validate the transition.
func (a *LoanApplication) ApplyRejection(reason, reviewer string, now time.Time) {
	a.Status = domain.StatusRejected
	a.RejectionReason = reason
	a.stampReview(reviewer, now)
}

// CanRequestReview checks if the application can be pulled into manual review.
// Use with ApplyReviewRequest in Execute callbacks.
func (a *LoanApplication) CanRequestReview() error {
	return a.canTransitionTo(domain.StatusManualReview)
}

// ApplyReviewRequest transitions the application to manual_review and records
// the officer who pulled it. Not a decision, so the review stamp stays unset.
// Call CanRequestReview first to validate the transition.
func (a *LoanApplication) ApplyReviewRequest(officer string, now time.Time) {
	a.Status = domain.StatusManualReview
	a.AssignedOfficer = officer
	a.UpdatedAt = now
}

// CanAddNote checks that the application still accepts notes.
// Terminal applications are immutable, notes included.
func (a *LoanApplication) CanAddNote(note string) error {
	if strings.TrimSpace(note) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "note cannot be empty")
	}
	if a.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is %s and can no longer be modified", a.Reference, a.Status)
	}
	return nil
}

// ApplyNote appends an attributed note. Call CanAddNote first.
func (a *LoanApplication) ApplyNote(note, author string, now time.Time) {
	entry := fmt.Sprintf("[%s by %s]: %s", now.UTC().Format(time.RFC3339), author, note)
	if a.Notes == "" {
		a.Notes = entry
	} else {
		a.Notes += "\n" + entry
	}
	a.UpdatedAt = now
}

// canTransitionTo translates an illegal move into a TransitionRejected error
// naming the application and its current state.
func (a *LoanApplication) canTransitionTo(target domain.LoanStatus) error {
	if a.Status.CanTransitionTo(target) {
		return nil
	}
	if a.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is %s and can no longer be modified", a.Reference, a.Status)
	}
	return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s cannot move from %s to %s", a.Reference, a.Status, target)
}

// stampReview records the reviewer exactly once.
func (a *LoanApplication) stampReview(reviewer string, now time.Time) {
	if a.ReviewedAt == nil {
		t := now
		a.ReviewedAt = &t
		a.ReviewedBy = reviewer
	}
	a.UpdatedAt = now
}

// Clone returns a deep copy so store reads never alias store state.
func (a *LoanApplication) Clone() *LoanApplication {
	cp := *a
	if a.RiskScore != nil {
		score := *a.RiskScore
		cp.RiskScore = &score
	}
	if a.RiskFactors != nil {
		cp.RiskFactors = append([]risk.Factor(nil), a.RiskFactors...)
	}
	if a.AISuggestions != nil {
		cp.AISuggestions = append(json.RawMessage(nil), a.AISuggestions...)
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}
