package models

import (
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// Transition names a lifecycle operation on a loan application.
type Transition string

const (
	TransitionSubmit        Transition = "submit"
	TransitionUpdate        Transition = "update"
	TransitionApprove       Transition = "approve"
	TransitionReject        Transition = "reject"
	TransitionRequestReview Transition = "request_review"
	TransitionAddNotes      Transition = "add_notes"
)

// transitionRoles is the single source of truth for who may perform each
// transition. Role checks live here, next to the state machine, rather than
// scattered across handlers.
var transitionRoles = map[Transition]map[domain.Role]bool{
	TransitionSubmit: {
		domain.RoleCustomer: true,
	},
	TransitionUpdate: {
		domain.RoleCustomer: true,
	},
	TransitionApprove: {
		domain.RoleOfficer: true,
		domain.RoleAdmin:   true,
	},
	TransitionReject: {
		domain.RoleOfficer: true,
		domain.RoleAdmin:   true,
	},
	TransitionRequestReview: {
		domain.RoleOfficer: true,
		domain.RoleAdmin:   true,
	},
	TransitionAddNotes: {
		domain.RoleOfficer: true,
		domain.RoleAdmin:   true,
	},
}

// Authorize rejects a transition attempted by a role outside its allowed set.
// The error names both the transition and the offending role so audit logs
// stay self-explanatory.
func Authorize(t Transition, role domain.Role) error {
	if transitionRoles[t][role] {
		return nil
	}
	return dErrors.Newf(dErrors.CodeTransitionRejected, "role %q may not perform %s", role.String(), string(t))
}
