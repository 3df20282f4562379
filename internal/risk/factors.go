// Package risk turns an applicant's financial profile into a weighted risk
// assessment. This is pure domain logic - no I/O, no side effects - so the
// whole engine is testable with plain inputs.
//
// Every factor score is risk-monotonic on a 0..100 scale: 0 is the safest
// possible reading, 100 the riskiest. The aggregate score inherits the same
// orientation, which keeps the classifier thresholds trivially comparable.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// Factor is one scored component of an assessment.
type Factor struct {
	Name        string              `json:"name"`
	Value       float64             `json:"value"`
	Weight      int                 `json:"weight"`
	Score       float64             `json:"score"`
	Status      domain.FactorStatus `json:"status"`
	Description string              `json:"description"`
}

// Factor names as they appear in API responses and stored assessments.
const (
	FactorDTI        = "Debt-to-Income Ratio"
	FactorLTI        = "Loan-to-Income Ratio"
	FactorCredit     = "Credit Score"
	FactorEmployment = "Employment Stability"
	FactorDocuments  = "Document Verification"
)

// Inputs is the applicant profile the engine scores. Money fields use decimal
// so ratio arithmetic does not accumulate float error before the final
// per-factor mapping.
type Inputs struct {
	LoanAmount      decimal.Decimal
	AnnualIncome    decimal.Decimal
	MonthlyExpenses decimal.Decimal
	ExistingDebts   decimal.Decimal
	CreditScore     int
	EmploymentType  domain.EmploymentType
	EmploymentYears int

	// Document verification progress. DocumentsTotal == 0 means no documents
	// were uploaded and the document factor is excluded from the weighting.
	DocumentsTotal    int
	DocumentsVerified int
}

// Assessment is the engine's output: the rounded aggregate plus the factor
// breakdown that produced it.
type Assessment struct {
	Score    int      `json:"score"`
	Factors  []Factor `json:"factors"`
	DTIRatio float64  `json:"dti_ratio"`
	LTIRatio float64  `json:"lti_ratio"`
}

// Factor weights. Each set sums to exactly 100; which set applies depends on
// whether any documents were uploaded.
var (
	weightsWithDocuments = map[string]int{
		FactorDTI:        30,
		FactorLTI:        20,
		FactorCredit:     25,
		FactorEmployment: 15,
		FactorDocuments:  10,
	}
	weightsWithoutDocuments = map[string]int{
		FactorDTI:        30,
		FactorLTI:        25,
		FactorCredit:     25,
		FactorEmployment: 20,
	}
)

// Validate enforces the engine's preconditions. Syntactic checks happen at
// intake; anything that still arrives here broken fails loudly rather than
// producing a silently wrong score.
func (in Inputs) Validate() error {
	if in.LoanAmount.IsNegative() || in.LoanAmount.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "loan amount must be positive")
	}
	if in.AnnualIncome.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "annual income cannot be negative")
	}
	if in.MonthlyExpenses.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "monthly expenses cannot be negative")
	}
	if in.ExistingDebts.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "existing debts cannot be negative")
	}
	if in.CreditScore < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credit score cannot be negative")
	}
	if !in.EmploymentType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid employment type %q", string(in.EmploymentType))
	}
	if in.EmploymentYears < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "employment years cannot be negative")
	}
	if in.DocumentsTotal < 0 || in.DocumentsVerified < 0 || in.DocumentsVerified > in.DocumentsTotal {
		return dErrors.New(dErrors.CodeInvalidInput, "inconsistent document counts")
	}
	return nil
}

// Evaluate scores the profile. Identical inputs always yield identical output.
func Evaluate(in Inputs) (*Assessment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	weights := weightsWithoutDocuments
	if in.DocumentsTotal > 0 {
		weights = weightsWithDocuments
	}

	dtiRatio, ltiRatio := ratios(in)

	factors := []Factor{
		dtiFactor(in, dtiRatio, weights[FactorDTI]),
		ltiFactor(in, ltiRatio, weights[FactorLTI]),
		creditFactor(in, weights[FactorCredit]),
		employmentFactor(in, weights[FactorEmployment]),
	}
	if in.DocumentsTotal > 0 {
		factors = append(factors, documentsFactor(in, weights[FactorDocuments]))
	}

	return &Assessment{
		Score:    aggregate(factors),
		Factors:  factors,
		DTIRatio: dtiRatio,
		LTIRatio: ltiRatio,
	}, nil
}

// ratios derives the two income ratios. The DTI numerator is the monthly debt
// load: existing debts amortised over twelve months plus recurring monthly
// expenses. With zero income the ratios are undefined; callers never divide,
// the income-based factors pin to 100 instead.
func ratios(in Inputs) (dti, lti float64) {
	if in.AnnualIncome.IsZero() {
		return 0, 0
	}
	twelve := decimal.NewFromInt(12)
	monthlyIncome := in.AnnualIncome.Div(twelve)
	debtLoad := in.ExistingDebts.Div(twelve).Add(in.MonthlyExpenses)
	dtiDec := debtLoad.Div(monthlyIncome).Mul(decimal.NewFromInt(100))
	ltiDec := in.LoanAmount.Div(in.AnnualIncome)
	dti, _ = dtiDec.Round(4).Float64()
	lti, _ = ltiDec.Round(4).Float64()
	return dti, lti
}

// rampScore maps a raw reading onto the risk scale by piecewise linear
// interpolation: [0, goodMax] covers scores 0..30, (goodMax, criticalMin]
// covers 30..60, (criticalMin, saturation] covers 60..100. Readings beyond
// saturation clamp at 100.
func rampScore(v, goodMax, criticalMin, saturation float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v <= goodMax:
		return v / goodMax * 30
	case v <= criticalMin:
		return 30 + (v-goodMax)/(criticalMin-goodMax)*30
	case v <= saturation:
		return 60 + (v-criticalMin)/(saturation-criticalMin)*40
	default:
		return 100
	}
}

func dtiFactor(in Inputs, ratio float64, weight int) Factor {
	if in.AnnualIncome.IsZero() {
		return Factor{
			Name:        FactorDTI,
			Value:       0,
			Weight:      weight,
			Score:       100,
			Status:      domain.FactorCritical,
			Description: "No declared income; debt burden cannot be serviced",
		}
	}
	score := rampScore(ratio, 30, 43, 86)
	return Factor{
		Name:        FactorDTI,
		Value:       ratio,
		Weight:      weight,
		Score:       score,
		Status:      domain.FactorStatusForScore(score),
		Description: "Monthly debt obligations as a percentage of monthly income",
	}
}

func ltiFactor(in Inputs, ratio float64, weight int) Factor {
	if in.AnnualIncome.IsZero() {
		return Factor{
			Name:        FactorLTI,
			Value:       0,
			Weight:      weight,
			Score:       100,
			Status:      domain.FactorCritical,
			Description: "No declared income; requested amount cannot be repaid",
		}
	}
	score := rampScore(ratio, 3, 5, 10)
	return Factor{
		Name:        FactorLTI,
		Value:       ratio,
		Weight:      weight,
		Score:       score,
		Status:      domain.FactorStatusForScore(score),
		Description: "Requested amount as a multiple of annual income",
	}
}

// creditFactor maps bureau scores (300..850) linearly onto the risk scale;
// out-of-range readings clamp to the nearest bound.
func creditFactor(in Inputs, weight int) Factor {
	cs := float64(in.CreditScore)
	if cs < 300 {
		cs = 300
	}
	if cs > 850 {
		cs = 850
	}
	score := (850 - cs) / 550 * 100
	return Factor{
		Name:        FactorCredit,
		Value:       float64(in.CreditScore),
		Weight:      weight,
		Score:       score,
		Status:      domain.FactorStatusForScore(score),
		Description: "Credit bureau score mapped onto the risk scale",
	}
}

// employmentFactor rewards tenure (risk falls 12 points per year, floor 0 at
// five years) and penalises volatile income sources with a fixed premium.
func employmentFactor(in Inputs, weight int) Factor {
	if in.EmploymentType == domain.EmploymentRetired && in.AnnualIncome.IsZero() {
		return Factor{
			Name:        FactorEmployment,
			Value:       float64(in.EmploymentYears),
			Weight:      weight,
			Score:       100,
			Status:      domain.FactorCritical,
			Description: "Retired with no declared income",
		}
	}

	base := 60 - 12*float64(in.EmploymentYears)
	if base < 0 {
		base = 0
	}

	var premium float64
	switch in.EmploymentType {
	case domain.EmploymentRetired:
		premium = 20
	case domain.EmploymentSelfEmployed, domain.EmploymentBusiness:
		premium = 25
	}

	score := base + premium
	if score > 100 {
		score = 100
	}
	return Factor{
		Name:        FactorEmployment,
		Value:       float64(in.EmploymentYears),
		Weight:      weight,
		Score:       score,
		Status:      domain.FactorStatusForScore(score),
		Description: "Income source stability and tenure",
	}
}

func documentsFactor(in Inputs, weight int) Factor {
	verified := float64(in.DocumentsVerified) / float64(in.DocumentsTotal)
	score := 100 * (1 - verified)
	return Factor{
		Name:        FactorDocuments,
		Value:       verified * 100,
		Weight:      weight,
		Score:       score,
		Status:      domain.FactorStatusForScore(score),
		Description: "Share of uploaded documents verified by an officer",
	}
}

// aggregate folds the weighted factor scores into the final 0..100 integer.
func aggregate(factors []Factor) int {
	var sum float64
	for _, f := range factors {
		sum += f.Score * float64(f.Weight)
	}
	score := int(math.Round(sum / 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
