// Package audit records the lifecycle trail of loan applications: who did
// what, when, and which status change resulted. The trail is append-only;
// nothing in the system updates or deletes an audit event.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
)

// Action names a recorded lifecycle operation.
type Action string

const (
	ActionSubmitted        Action = "application_submitted"
	ActionUpdated          Action = "application_updated"
	ActionApproved         Action = "application_approved"
	ActionRejected         Action = "application_rejected"
	ActionReviewRequested  Action = "review_requested"
	ActionNoteAdded        Action = "note_added"
	ActionRescored         Action = "application_rescored"
	ActionAnalysisAttached Action = "ai_analysis_attached"
	ActionDocumentUploaded Action = "document_uploaded"
	ActionDocumentVerified Action = "document_verified"
)

// Event is one audit trail entry.
type Event struct {
	EventID       uuid.UUID            `json:"event_id"`
	ApplicationID domain.ApplicationID `json:"application_id"`
	Action        Action               `json:"action"`
	Actor         string               `json:"actor"`
	ActorRole     domain.Role          `json:"actor_role"`
	FromStatus    domain.LoanStatus    `json:"from_status,omitempty"`
	ToStatus      domain.LoanStatus    `json:"to_status,omitempty"`
	Detail        map[string]string    `json:"detail,omitempty"`
	RequestID     string               `json:"request_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Store is the persistence contract for the audit trail.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplication(ctx context.Context, id domain.ApplicationID) ([]Event, error)
}
