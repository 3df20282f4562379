package domain

import dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"

// LoanStatus is the lifecycle state of a loan application.
// Invariant: transitions follow the fixed state machine below; approved and
// rejected are terminal and a terminal application never changes again.
//
// Usage: construct via ParseLoanStatus at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type LoanStatus string

const (
	StatusPending      LoanStatus = "pending"
	StatusManualReview LoanStatus = "manual_review"
	StatusApproved     LoanStatus = "approved"
	StatusRejected     LoanStatus = "rejected"
)

// validLoanStatuses is the single source of truth for valid statuses.
var validLoanStatuses = map[LoanStatus]bool{
	StatusPending:      true,
	StatusManualReview: true,
	StatusApproved:     true,
	StatusRejected:     true,
}

// loanStatusTransitions encodes the state machine. Absence means forbidden.
var loanStatusTransitions = map[LoanStatus][]LoanStatus{
	StatusPending:      {StatusManualReview, StatusApproved, StatusRejected},
	StatusManualReview: {StatusApproved, StatusRejected},
	StatusApproved:     {},
	StatusRejected:     {},
}

// ParseLoanStatus constructs a LoanStatus from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseLoanStatus(s string) (LoanStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := LoanStatus(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s LoanStatus) IsValid() bool {
	return validLoanStatuses[s]
}

// CanTransitionTo reports whether the state machine permits moving to target.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	for _, allowed := range loanStatusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s LoanStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation of the status.
func (s LoanStatus) String() string {
	return string(s)
}
