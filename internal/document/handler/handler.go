// Package handler exposes document metadata endpoints over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/document"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/httputil"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// Service defines the interface for document operations.
type Service interface {
	Upload(ctx context.Context, applicationID domain.ApplicationID, req document.UploadRequest) (*document.Document, error)
	List(ctx context.Context, applicationID domain.ApplicationID) ([]*document.Document, error)
	Verify(ctx context.Context, id domain.DocumentID) (*document.Document, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{id}/documents", h.HandleUpload)
	r.Get("/applications/{id}/documents", h.HandleList)
	r.Post("/documents/{id}/verify", h.HandleVerify)
}

// HandleUpload handles POST /applications/{id}/documents requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Upload(ctx, applicationID, document.UploadRequest{
		Type:          req.ParsedType(),
		FileName:      req.FileName,
		ExtractedData: req.ExtractedData,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestID,
		"application_id", applicationID.String(),
		"document_id", doc.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromModel(doc))
}

// HandleList handles GET /applications/{id}/documents requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	applicationID, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	docs, err := h.service.List(ctx, applicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromModels(docs))
}

// HandleVerify handles POST /documents/{id}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.service.Verify(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document verified",
		"request_id", requestID,
		"document_id", doc.ID.String(),
		"application_id", doc.ApplicationID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromModel(doc))
}
