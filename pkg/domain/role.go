package domain

import dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"

// Role is the access level of an authenticated actor.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOfficer  Role = "officer"
	RoleAdmin    Role = "admin"
)

var validRoles = map[Role]bool{
	RoleCustomer: true,
	RoleOfficer:  true,
	RoleAdmin:    true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsStaff reports whether the role may review applications.
func (r Role) IsStaff() bool {
	return r == RoleOfficer || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
