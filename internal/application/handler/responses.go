package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
)

// ApplicationResponse is the HTTP representation of a loan application.
type ApplicationResponse struct {
	ID             string `json:"id"`
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	ApplicantID    string `json:"applicant_id"`
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
	ApplicantPhone string `json:"applicant_phone,omitempty"`

	LoanType     string          `json:"loan_type"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	TenureMonths int             `json:"tenure_months"`
	Purpose      string          `json:"purpose,omitempty"`

	AnnualIncome    decimal.Decimal `json:"annual_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	ExistingDebts   decimal.Decimal `json:"existing_debts"`
	CreditScore     int             `json:"credit_score"`
	EmploymentType  string          `json:"employment_type"`
	EmploymentYears int             `json:"employment_years"`

	RiskScore      *int          `json:"risk_score,omitempty"`
	RiskFactors    []risk.Factor `json:"risk_factors,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`

	AIExplanation string          `json:"ai_explanation,omitempty"`
	AISuggestions json.RawMessage `json:"ai_suggestions,omitempty"`

	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	AssignedOfficer string     `json:"assigned_officer,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FromModel converts a domain application to its HTTP representation.
func FromModel(app *models.LoanApplication) *ApplicationResponse {
	return &ApplicationResponse{
		ID:              app.ID.String(),
		Reference:       app.Reference,
		Status:          string(app.Status),
		ApplicantID:     app.ApplicantID.String(),
		ApplicantName:   app.ApplicantName,
		ApplicantEmail:  app.ApplicantEmail,
		ApplicantPhone:  app.ApplicantPhone,
		LoanType:        string(app.LoanType),
		LoanAmount:      app.LoanAmount,
		TenureMonths:    app.TenureMonths,
		Purpose:         app.Purpose,
		AnnualIncome:    app.AnnualIncome,
		MonthlyExpenses: app.MonthlyExpenses,
		ExistingDebts:   app.ExistingDebts,
		CreditScore:     app.CreditScore,
		EmploymentType:  string(app.EmploymentType),
		EmploymentYears: app.EmploymentYears,
		RiskScore:       app.RiskScore,
		RiskFactors:     app.RiskFactors,
		Recommendation:  string(app.Recommendation),
		AIExplanation:   app.AIExplanation,
		AISuggestions:   app.AISuggestions,
		Notes:           app.Notes,
		RejectionReason: app.RejectionReason,
		AssignedOfficer: app.AssignedOfficer,
		ReviewedBy:      app.ReviewedBy,
		ReviewedAt:      app.ReviewedAt,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
}

// ListResponse wraps a collection of applications.
type ListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Count        int                    `json:"count"`
}

// FromModels converts a list of applications.
func FromModels(apps []*models.LoanApplication) *ListResponse {
	out := make([]*ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, FromModel(app))
	}
	return &ListResponse{Applications: out, Count: len(out)}
}

// AuditEventResponse is one audit trail entry in HTTP form.
type AuditEventResponse struct {
	EventID       string            `json:"event_id"`
	ApplicationID string            `json:"application_id"`
	Action        string            `json:"action"`
	Actor         string            `json:"actor"`
	ActorRole     string            `json:"actor_role"`
	FromStatus    string            `json:"from_status,omitempty"`
	ToStatus      string            `json:"to_status,omitempty"`
	Detail        map[string]string `json:"detail,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// TrailResponse wraps an application's audit trail.
type TrailResponse struct {
	Events []AuditEventResponse `json:"events"`
	Count  int                  `json:"count"`
}

// FromEvents converts audit events to their HTTP representation.
func FromEvents(events []audit.Event) *TrailResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			EventID:       e.EventID.String(),
			ApplicationID: e.ApplicationID.String(),
			Action:        string(e.Action),
			Actor:         e.Actor,
			ActorRole:     string(e.ActorRole),
			FromStatus:    string(e.FromStatus),
			ToStatus:      string(e.ToStatus),
			Detail:        e.Detail,
			RequestID:     e.RequestID,
			OccurredAt:    e.OccurredAt,
		})
	}
	return &TrailResponse{Events: out, Count: len(out)}
}
