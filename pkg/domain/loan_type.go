package domain

import dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"

// LoanType is the product category of a loan application.
type LoanType string

const (
	LoanTypePersonal  LoanType = "personal"
	LoanTypeHome      LoanType = "home"
	LoanTypeAuto      LoanType = "auto"
	LoanTypeBusiness  LoanType = "business"
	LoanTypeEducation LoanType = "education"
)

var validLoanTypes = map[LoanType]bool{
	LoanTypePersonal:  true,
	LoanTypeHome:      true,
	LoanTypeAuto:      true,
	LoanTypeBusiness:  true,
	LoanTypeEducation: true,
}

// ParseLoanType constructs a LoanType from external input.
func ParseLoanType(s string) (LoanType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "loan type cannot be empty")
	}
	t := LoanType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid loan type %q", s)
	}
	return t, nil
}

// IsValid checks if the loan type is one of the supported enum values.
func (t LoanType) IsValid() bool {
	return validLoanTypes[t]
}

func (t LoanType) String() string {
	return string(t)
}
