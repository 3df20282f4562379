package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
)

// PostgresStore persists applications in the loan_applications table.
// Execute runs SELECT ... FOR UPDATE inside a transaction so the
// compare-and-set holds under concurrent writers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const applicationColumns = `
	id, reference, applicant_id, applicant_name, applicant_email, applicant_phone,
	loan_type, loan_amount, tenure_months, purpose,
	annual_income, monthly_expenses, existing_debts, credit_score, employment_type, employment_years,
	status, risk_score, risk_factors, recommendation, dti_ratio, lti_ratio,
	ai_explanation, ai_suggestions, notes, rejection_reason,
	assigned_officer, reviewed_by, reviewed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, app *models.LoanApplication) error {
	factors, err := json.Marshal(app.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}

	query := `
		INSERT INTO loan_applications (` + applicationColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
		        $17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)
	`
	_, err = s.pool.Exec(ctx, query,
		app.ID.String(), app.Reference, app.ApplicantID.String(), app.ApplicantName, app.ApplicantEmail, app.ApplicantPhone,
		app.LoanType.String(), app.LoanAmount, app.TenureMonths, app.Purpose,
		app.AnnualIncome, app.MonthlyExpenses, app.ExistingDebts, app.CreditScore, app.EmploymentType.String(), app.EmploymentYears,
		app.Status.String(), app.RiskScore, factors, string(app.Recommendation), app.DTIRatio, app.LTIRatio,
		app.AIExplanation, nullableJSON(app.AISuggestions), app.Notes, app.RejectionReason,
		nullableString(app.AssignedOfficer), nullableString(app.ReviewedBy), app.ReviewedAt, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert loan application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1`
	return s.scanOne(ctx, query, id.String())
}

func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (*models.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE reference = $1`
	return s.scanOne(ctx, query, strings.ToUpper(reference))
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM loan_applications`
	var (
		clauses []string
		args    []any
	)
	if filter.Status != nil {
		args = append(args, filter.Status.String())
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ApplicantID != nil {
		args = append(args, filter.ApplicantID.String())
		clauses = append(clauses, fmt.Sprintf("applicant_id = $%d", len(args)))
	}
	if filter.LoanType != nil {
		args = append(args, filter.LoanType.String())
		clauses = append(clauses, fmt.Sprintf("loan_type = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, reference DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loan applications: %w", err)
	}
	defer rows.Close()

	var out []*models.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// Execute implements the compare-and-set transition. The row lock taken by
// FOR UPDATE spans validation and mutation, so two concurrent deciders
// serialize and the loser observes the new status.
func (s *PostgresStore) Execute(
	ctx context.Context,
	id domain.ApplicationID,
	expect domain.LoanStatus,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
) (*models.LoanApplication, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(tx.QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, err
	}
	if app.Status != expect {
		return nil, sentinel.ErrConflict
	}

	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	factors, err := json.Marshal(app.RiskFactors)
	if err != nil {
		return nil, fmt.Errorf("marshal risk factors: %w", err)
	}
	update := `
		UPDATE loan_applications SET
			status = $2, loan_type = $3, loan_amount = $4, tenure_months = $5, purpose = $6,
			annual_income = $7, monthly_expenses = $8, existing_debts = $9, credit_score = $10,
			employment_type = $11, employment_years = $12,
			risk_score = $13, risk_factors = $14, recommendation = $15,
			dti_ratio = $16, lti_ratio = $17, ai_explanation = $18, ai_suggestions = $19,
			notes = $20, rejection_reason = $21,
			assigned_officer = $22, reviewed_by = $23, reviewed_at = $24, updated_at = $25
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update,
		app.ID.String(), app.Status.String(), app.LoanType.String(), app.LoanAmount, app.TenureMonths, app.Purpose,
		app.AnnualIncome, app.MonthlyExpenses, app.ExistingDebts, app.CreditScore,
		app.EmploymentType.String(), app.EmploymentYears,
		app.RiskScore, factors, string(app.Recommendation),
		app.DTIRatio, app.LTIRatio, app.AIExplanation, nullableJSON(app.AISuggestions),
		app.Notes, app.RejectionReason,
		nullableString(app.AssignedOfficer), nullableString(app.ReviewedBy), app.ReviewedAt, app.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update loan application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[domain.LoanStatus]int)}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM loan_applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[domain.LoanStatus(status)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var avgSeconds *float64
	err = s.pool.QueryRow(ctx, `
		SELECT EXTRACT(EPOCH FROM AVG(reviewed_at - created_at))
		FROM loan_applications WHERE reviewed_at IS NOT NULL
	`).Scan(&avgSeconds)
	if err != nil {
		return nil, fmt.Errorf("query decision time: %w", err)
	}
	if avgSeconds != nil {
		stats.AverageDecisionTime = time.Duration(*avgSeconds * float64(time.Second))
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanApplication(row scannable) (*models.LoanApplication, error) {
	var (
		app                    models.LoanApplication
		idStr, applicantStr    string
		loanType, employment   string
		status, recommendation string
		loanAmount             decimal.Decimal
		annualIncome           decimal.Decimal
		monthlyExpenses        decimal.Decimal
		existingDebts          decimal.Decimal
		factorsRaw             []byte
		suggestionsRaw         []byte
		assignedOfficer        *string
		reviewedBy             *string
	)
	err := row.Scan(
		&idStr, &app.Reference, &applicantStr, &app.ApplicantName, &app.ApplicantEmail, &app.ApplicantPhone,
		&loanType, &loanAmount, &app.TenureMonths, &app.Purpose,
		&annualIncome, &monthlyExpenses, &existingDebts, &app.CreditScore, &employment, &app.EmploymentYears,
		&status, &app.RiskScore, &factorsRaw, &recommendation, &app.DTIRatio, &app.LTIRatio,
		&app.AIExplanation, &suggestionsRaw, &app.Notes, &app.RejectionReason,
		&assignedOfficer, &reviewedBy, &app.ReviewedAt, &app.CreatedAt, &app.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan loan application: %w", err)
	}

	appID, err := domain.ParseApplicationID(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored application id: %w", err)
	}
	applicantID, err := domain.ParseUserID(applicantStr)
	if err != nil {
		return nil, fmt.Errorf("stored applicant id: %w", err)
	}
	app.ID = appID
	app.ApplicantID = applicantID
	app.LoanType = domain.LoanType(loanType)
	app.LoanAmount = loanAmount
	app.AnnualIncome = annualIncome
	app.MonthlyExpenses = monthlyExpenses
	app.ExistingDebts = existingDebts
	app.EmploymentType = domain.EmploymentType(employment)
	app.Status = domain.LoanStatus(status)
	app.Recommendation = risk.Recommendation(recommendation)
	if len(factorsRaw) > 0 {
		if err := json.Unmarshal(factorsRaw, &app.RiskFactors); err != nil {
			return nil, fmt.Errorf("unmarshal risk factors: %w", err)
		}
	}
	if len(suggestionsRaw) > 0 {
		app.AISuggestions = json.RawMessage(suggestionsRaw)
	}
	if assignedOfficer != nil {
		app.AssignedOfficer = *assignedOfficer
	}
	if reviewedBy != nil {
		app.ReviewedBy = *reviewedBy
	}
	return &app, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, args ...any) (*models.LoanApplication, error) {
	return scanApplication(s.pool.QueryRow(ctx, query, args...))
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// isUniqueViolation matches Postgres error code 23505 without importing the
// pgconn error type into every call site.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
