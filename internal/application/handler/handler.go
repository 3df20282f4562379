// Package handler exposes the loan application lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/service"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/httputil"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// Service defines the interface for application lifecycle operations.
type Service interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.LoanApplication, error)
	Get(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
	GetByReference(ctx context.Context, reference string) (*models.LoanApplication, error)
	List(ctx context.Context, filter store.Filter) ([]*models.LoanApplication, error)
	Update(ctx context.Context, id domain.ApplicationID, attrs models.Attributes) (*models.LoanApplication, error)
	Approve(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
	Reject(ctx context.Context, id domain.ApplicationID, reason string) (*models.LoanApplication, error)
	RequestReview(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
	AddNote(ctx context.Context, id domain.ApplicationID, note string) (*models.LoanApplication, error)
	AttachAnalysis(ctx context.Context, id domain.ApplicationID, explanation string, suggestions json.RawMessage) (*models.LoanApplication, error)
	Rescore(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
	Trail(ctx context.Context, id domain.ApplicationID) ([]audit.Event, error)
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an application handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleSubmit)
	r.Get("/applications", h.HandleList)
	r.Get("/applications/reference/{reference}", h.HandleGetByReference)
	r.Get("/applications/{id}", h.HandleGet)
	r.Put("/applications/{id}", h.HandleUpdate)
	r.Get("/applications/{id}/audit", h.HandleTrail)
	r.Post("/applications/{id}/approve", h.HandleApprove)
	r.Post("/applications/{id}/reject", h.HandleReject)
	r.Post("/applications/{id}/review", h.HandleRequestReview)
	r.Post("/applications/{id}/notes", h.HandleAddNote)
	r.Post("/applications/{id}/analysis", h.HandleAttachAnalysis)
	r.Post("/applications/{id}/rescore", h.HandleRescore)
}

// HandleSubmit handles POST /applications requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[*SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Submit(ctx, service.SubmitRequest{
		LoanType:        req.ParsedLoanType(),
		LoanAmount:      req.LoanAmount,
		TenureMonths:    req.TenureMonths,
		Purpose:         req.Purpose,
		AnnualIncome:    req.AnnualIncome,
		MonthlyExpenses: req.MonthlyExpenses,
		ExistingDebts:   req.ExistingDebts,
		CreditScore:     req.CreditScore,
		EmploymentType:  req.ParsedEmploymentType(),
		EmploymentYears: req.EmploymentYears,
		ApplicantName:   req.ApplicantName,
		ApplicantPhone:  req.Phone,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "application submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application submitted",
		"request_id", requestID,
		"application_id", app.ID.String(),
		"reference", app.Reference,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromModel(app))
}

// HandleList handles GET /applications requests. Staff may filter with
// status, applicant_id and loan_type query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	apps, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModels(apps))
}

// HandleGet handles GET /applications/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleGetByReference handles GET /applications/reference/{reference}.
func (h *Handler) HandleGetByReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	app, err := h.service.GetByReference(ctx, chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleUpdate handles PUT /applications/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Update(ctx, id, req.Attributes())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application updated",
		"request_id", requestID,
		"application_id", app.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleApprove handles POST /applications/{id}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "application approved", func(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
		return h.service.Approve(ctx, id)
	})
}

// HandleReject handles POST /applications/{id}/reject requests.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Reject(ctx, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application rejected",
		"request_id", requestID,
		"application_id", app.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleRequestReview handles POST /applications/{id}/review requests.
func (h *Handler) HandleRequestReview(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "application pulled into manual review", func(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
		return h.service.RequestReview(ctx, id)
	})
}

// HandleAddNote handles POST /applications/{id}/notes requests.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*NoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.AddNote(ctx, id, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleAttachAnalysis handles POST /applications/{id}/analysis requests.
func (h *Handler) HandleAttachAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*AnalysisRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.AttachAnalysis(ctx, id, req.Explanation, req.Suggestions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

// HandleRescore handles POST /applications/{id}/rescore requests.
func (h *Handler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "application rescored", func(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error) {
		return h.service.Rescore(ctx, id)
	})
}

// HandleTrail handles GET /applications/{id}/audit requests.
func (h *Handler) HandleTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.Trail(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// decide factors the body-less lifecycle endpoints: parse the id, run the
// operation, log and render.
func (h *Handler) decide(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	op func(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := op(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, message,
		"request_id", requestID,
		"application_id", app.ID.String(),
		"status", string(app.Status),
	)
	httputil.WriteJSON(w, http.StatusOK, FromModel(app))
}

func pathID(r *http.Request) (domain.ApplicationID, error) {
	return domain.ParseApplicationID(chi.URLParam(r, "id"))
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	var filter store.Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseLoanStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Status = &status
	}
	if raw := q.Get("applicant_id"); raw != "" {
		applicantID, err := domain.ParseUserID(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.ApplicantID = &applicantID
	}
	if raw := q.Get("loan_type"); raw != "" {
		loanType, err := domain.ParseLoanType(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.LoanType = &loanType
	}
	return filter, nil
}
