package domain

import dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"

// EmploymentType is the applicant's declared source of income.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self-employed"
	EmploymentBusiness     EmploymentType = "business"
	EmploymentRetired      EmploymentType = "retired"
)

var validEmploymentTypes = map[EmploymentType]bool{
	EmploymentSalaried:     true,
	EmploymentSelfEmployed: true,
	EmploymentBusiness:     true,
	EmploymentRetired:      true,
}

// ParseEmploymentType constructs an EmploymentType from external input.
func ParseEmploymentType(s string) (EmploymentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "employment type cannot be empty")
	}
	t := EmploymentType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid employment type %q", s)
	}
	return t, nil
}

// IsValid checks if the employment type is one of the supported enum values.
func (t EmploymentType) IsValid() bool {
	return validEmploymentTypes[t]
}

func (t EmploymentType) String() string {
	return string(t)
}
