// Package service implements the loan application lifecycle: submission with
// automatic risk scoring, role-checked status transitions, note keeping,
// re-scoring and opaque AI annotations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/metrics"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/risk"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// DocumentSource reports document verification progress for an application.
// The document vertical implements it; the sub-score feeds the risk engine.
type DocumentSource interface {
	Counts(ctx context.Context, id domain.ApplicationID) (total, verified int, err error)
}

// noDocuments is the fallback when no document vertical is wired.
type noDocuments struct{}

func (noDocuments) Counts(context.Context, domain.ApplicationID) (int, int, error) {
	return 0, 0, nil
}

// StatsInvalidator is notified whenever an application is created or changes
// status, so cached dashboard aggregates can be dropped. The dashboard
// vertical implements it.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

type noInvalidation struct{}

func (noInvalidation) Invalidate(context.Context) {}

// Service orchestrates application lifecycle operations.
type Service struct {
	store       store.Store
	documents   DocumentSource
	auditor     *audit.Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	invalidator StatsInvalidator
}

// Option configures the Service.
type Option func(*Service)

// WithDocumentSource wires document verification progress into scoring.
func WithDocumentSource(src DocumentSource) Option {
	return func(s *Service) {
		s.documents = src
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStatsInvalidator wires dashboard cache invalidation into submissions
// and status transitions.
func WithStatsInvalidator(inv StatsInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// New constructs the application service.
func New(st store.Store, auditor *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       st,
		documents:   noDocuments{},
		auditor:     auditor,
		logger:      logger,
		invalidator: noInvalidation{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest carries a customer's application intake.
type SubmitRequest struct {
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
	ApplicantName   string
	ApplicantPhone  string
}

// Submit creates a pending application for the authenticated customer, scores
// it and records the audit trail entry. The assessment is advisory: the
// application always lands in pending regardless of the recommendation.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionSubmit); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	app, err := models.NewLoanApplication(
		requestcontext.ActorID(ctx),
		req.ApplicantName,
		requestcontext.Actor(ctx),
		req.ApplicantPhone,
		models.Attributes{
			LoanType:        req.LoanType,
			LoanAmount:      req.LoanAmount,
			TenureMonths:    req.TenureMonths,
			Purpose:         req.Purpose,
			AnnualIncome:    req.AnnualIncome,
			MonthlyExpenses: req.MonthlyExpenses,
			ExistingDebts:   req.ExistingDebts,
			CreditScore:     req.CreditScore,
			EmploymentType:  req.EmploymentType,
			EmploymentYears: req.EmploymentYears,
		},
		now,
	)
	if err != nil {
		return nil, err
	}

	assessment, err := risk.Evaluate(app.RiskInputs(0, 0))
	if err != nil {
		return nil, err
	}
	app.ApplyAssessment(assessment, now)

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "application already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create application")
	}

	s.metrics.IncSubmitted()
	s.metrics.ObserveRiskScore(assessment.Score)
	s.invalidator.Invalidate(ctx)
	s.emitAudit(ctx, app, audit.ActionSubmitted, "", domain.StatusPending, map[string]string{
		"recommendation": string(app.Recommendation),
	})

	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID.String(),
		"reference", app.Reference,
		"risk_score", assessment.Score,
		"recommendation", string(app.Recommendation),
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}

// Get returns one application. Customers only see their own.
func (s *Service) Get(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, id.String())
	}
	return s.guardOwnership(ctx, app)
}

// GetByReference resolves a human-readable reference ("LA-...").
func (s *Service) GetByReference(ctx context.Context, reference string) (*models.LoanApplication, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reference is required")
	}
	app, err := s.store.FindByReference(ctx, reference)
	if err != nil {
		return nil, wrapStoreErr(err, reference)
	}
	return s.guardOwnership(ctx, app)
}

// List returns applications. Staff see all (optionally filtered); customers
// are always scoped to their own applications.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]*models.LoanApplication, error) {
	if !requestcontext.Role(ctx).IsStaff() {
		actor := requestcontext.ActorID(ctx)
		filter.ApplicantID = &actor
	}
	apps, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	return apps, nil
}

// Update replaces the applicant-editable fields of a pending application and
// re-scores it. Only the owning customer may edit, and only before any
// officer involvement.
func (s *Service) Update(ctx context.Context, id domain.ApplicationID, attrs models.Attributes) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionUpdate); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	total, verified, err := s.documents.Counts(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document counts")
	}

	var scored *risk.Assessment
	app, err := s.mutateInPlace(ctx, id,
		func(a *models.LoanApplication) error {
			if err := a.CanUpdate(attrs); err != nil {
				return err
			}
			probe := a.Clone()
			probe.ApplyUpdate(attrs, now)
			assessment, err := risk.Evaluate(probe.RiskInputs(total, verified))
			if err != nil {
				return err
			}
			scored = assessment
			return nil
		},
		func(a *models.LoanApplication) {
			a.ApplyUpdate(attrs, now)
			a.ApplyAssessment(scored, now)
		},
	)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRiskScore(scored.Score)
	s.emitAudit(ctx, app, audit.ActionUpdated, app.Status, app.Status, map[string]string{
		"recommendation": string(app.Recommendation),
	})
	return app, nil
}

// Approve transitions the application to approved.
func (s *Service) Approve(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionApprove); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reviewer := requestcontext.Actor(ctx)

	var from domain.LoanStatus
	app, err := s.transition(ctx, id, models.TransitionApprove,
		func(a *models.LoanApplication) error {
			from = a.Status
			return a.CanApprove()
		},
		func(a *models.LoanApplication) { a.ApplyApproval(reviewer, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, app, audit.ActionApproved, from, domain.StatusApproved, nil)
	return app, nil
}

// Reject transitions the application to rejected with a mandatory reason.
func (s *Service) Reject(ctx context.Context, id domain.ApplicationID, reason string) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionReject); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reviewer := requestcontext.Actor(ctx)

	var from domain.LoanStatus
	app, err := s.transition(ctx, id, models.TransitionReject,
		func(a *models.LoanApplication) error {
			from = a.Status
			return a.CanReject(reason)
		},
		func(a *models.LoanApplication) { a.ApplyRejection(reason, reviewer, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, app, audit.ActionRejected, from, domain.StatusRejected, map[string]string{
		"reason": reason,
	})
	return app, nil
}

// RequestReview pulls a pending application into manual review.
func (s *Service) RequestReview(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionRequestReview); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	officer := requestcontext.Actor(ctx)

	app, err := s.transition(ctx, id, models.TransitionRequestReview,
		func(a *models.LoanApplication) error { return a.CanRequestReview() },
		func(a *models.LoanApplication) { a.ApplyReviewRequest(officer, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, app, audit.ActionReviewRequested, domain.StatusPending, domain.StatusManualReview, map[string]string{
		"assigned_officer": officer,
	})
	return app, nil
}

// AddNote appends an attributed note to a non-terminal application.
func (s *Service) AddNote(ctx context.Context, id domain.ApplicationID, note string) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionAddNotes); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	author := requestcontext.Actor(ctx)

	app, err := s.mutateInPlace(ctx, id,
		func(a *models.LoanApplication) error { return a.CanAddNote(note) },
		func(a *models.LoanApplication) { a.ApplyNote(note, author, now) },
	)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, app, audit.ActionNoteAdded, app.Status, app.Status, nil)
	return app, nil
}

// AttachAnalysis stores opaque AI annotations on a non-terminal application.
// The annotations are never interpreted; they ride along for display only.
func (s *Service) AttachAnalysis(ctx context.Context, id domain.ApplicationID, explanation string, suggestions json.RawMessage) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionAddNotes); err != nil {
		return nil, err
	}
	if explanation == "" && len(suggestions) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "analysis payload is empty")
	}
	now := requestcontext.Now(ctx)

	app, err := s.mutateInPlace(ctx, id,
		func(a *models.LoanApplication) error {
			if a.Status.IsTerminal() {
				return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is %s and can no longer be modified", a.Reference, a.Status)
			}
			return nil
		},
		func(a *models.LoanApplication) {
			a.AIExplanation = explanation
			a.AISuggestions = suggestions
			a.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, app, audit.ActionAnalysisAttached, app.Status, app.Status, nil)
	return app, nil
}

// Rescore recomputes the advisory assessment, folding in current document
// verification progress. Allowed in any non-terminal state; never changes
// status.
func (s *Service) Rescore(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
	if err := requireRole(ctx, models.TransitionAddNotes); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	total, verified, err := s.documents.Counts(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document counts")
	}

	var scored *risk.Assessment
	app, err := s.mutateInPlace(ctx, id,
		func(a *models.LoanApplication) error {
			if a.Status.IsTerminal() {
				return dErrors.Newf(dErrors.CodeTransitionRejected, "application %s is %s and can no longer be modified", a.Reference, a.Status)
			}
			assessment, err := risk.Evaluate(a.RiskInputs(total, verified))
			if err != nil {
				return err
			}
			scored = assessment
			return nil
		},
		func(a *models.LoanApplication) { a.ApplyAssessment(scored, now) },
	)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRiskScore(scored.Score)
	s.emitAudit(ctx, app, audit.ActionRescored, app.Status, app.Status, map[string]string{
		"recommendation": string(app.Recommendation),
	})
	return app, nil
}

// Trail returns the audit events for one application.
func (s *Service) Trail(ctx context.Context, id domain.ApplicationID) ([]audit.Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.auditor.Trail(ctx, id)
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

// transition runs a status-changing Execute with a single retry on conflict.
// The retry re-reads current status so a legitimate race (review requested
// between read and write) gets one more chance; a genuinely illegal move
// fails on the retry with TransitionRejected instead.
func (s *Service) transition(
	ctx context.Context,
	id domain.ApplicationID,
	t models.Transition,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
) (*models.LoanApplication, error) {
	app, err := s.executeAtCurrent(ctx, id, validate, mutate)
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncConflictRetry()
		s.logger.WarnContext(ctx, "transition lost compare-and-set, retrying once",
			"application_id", id.String(),
			"transition", string(t),
			"request_id", requestcontext.RequestID(ctx),
		)
		app, err = s.executeAtCurrent(ctx, id, validate, mutate)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrapf(err, dErrors.CodeConflict, "application %s was modified concurrently", id.String())
		}
		if dErrors.HasCode(err, dErrors.CodeTransitionRejected) {
			s.metrics.IncTransitionRejected()
		}
		return nil, wrapStoreErr(err, id.String())
	}

	s.metrics.IncTransition(string(t))
	s.invalidator.Invalidate(ctx)
	return app, nil
}

// mutateInPlace is transition without the status change: it still goes
// through Execute so the validate-mutate pair is atomic, expecting the status
// it just read.
func (s *Service) mutateInPlace(
	ctx context.Context,
	id domain.ApplicationID,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
) (*models.LoanApplication, error) {
	app, err := s.executeAtCurrent(ctx, id, validate, mutate)
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncConflictRetry()
		app, err = s.executeAtCurrent(ctx, id, validate, mutate)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrapf(err, dErrors.CodeConflict, "application %s was modified concurrently", id.String())
		}
		return nil, wrapStoreErr(err, id.String())
	}
	return app, nil
}

// executeAtCurrent reads the application's current status and runs Execute
// expecting it, turning the store's CAS into optimistic concurrency for the
// service layer.
func (s *Service) executeAtCurrent(
	ctx context.Context,
	id domain.ApplicationID,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
) (*models.LoanApplication, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Execute(ctx, id, current.Status, validate, mutate)
}

// guardOwnership hides other customers' applications. Staff see everything.
func (s *Service) guardOwnership(ctx context.Context, app *models.LoanApplication) (*models.LoanApplication, error) {
	if requestcontext.Role(ctx).IsStaff() {
		return app, nil
	}
	if app.ApplicantID != requestcontext.ActorID(ctx) {
		// Not-found rather than forbidden: existence of someone else's
		// application is not the customer's business.
		return nil, dErrors.Newf(dErrors.CodeNotFound, "application %s not found", app.ID.String())
	}
	return app, nil
}

func (s *Service) emitAudit(ctx context.Context, app *models.LoanApplication, action audit.Action, from, to domain.LoanStatus, detail map[string]string) {
	err := s.auditor.Record(ctx, audit.Event{
		ApplicationID: app.ID,
		Action:        action,
		Actor:         requestcontext.Actor(ctx),
		ActorRole:     requestcontext.Role(ctx),
		FromStatus:    from,
		ToStatus:      to,
		Detail:        detail,
	})
	if err != nil {
		// The transition already committed; losing the trail entry is logged
		// by the publisher and must not fail the operation.
		s.logger.WarnContext(ctx, "audit record dropped",
			"application_id", app.ID.String(),
			"action", string(action),
		)
	}
}

func requireRole(ctx context.Context, t models.Transition) error {
	role := requestcontext.Role(ctx)
	if role == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return models.Authorize(t, role)
}

// wrapStoreErr translates store sentinels into coded errors. ref is the id or
// reference the caller looked up, so the message names the application.
func wrapStoreErr(err error, ref string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrapf(err, dErrors.CodeNotFound, "application %s not found", ref)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrapf(err, dErrors.CodeConflict, "application %s was modified concurrently", ref)
	default:
		var de *dErrors.DomainError
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
	}
}
