package document

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/models"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// Applications is the slice of the application service this vertical needs:
// ownership-checked reads and a re-score after verification moves the
// document factor.
type Applications interface {
	Get(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
	Rescore(ctx context.Context, id domain.ApplicationID) (*models.LoanApplication, error)
}

// Service manages document metadata for loan applications.
type Service struct {
	store        Store
	applications Applications
	auditor      *audit.Publisher
	logger       *slog.Logger
}

func NewService(store Store, applications Applications, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		applications: applications,
		auditor:      auditor,
		logger:       logger,
	}
}

// UploadRequest carries one document's metadata.
type UploadRequest struct {
	Type          domain.DocumentType
	FileName      string
	ExtractedData map[string]string
}

// Upload attaches a document record to an application the caller can see.
// Documents are frozen together with the application once it is decided.
func (s *Service) Upload(ctx context.Context, applicationID domain.ApplicationID, req UploadRequest) (*Document, error) {
	app, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeTransitionRejected, "application is %s and can no longer be modified", app.Status)
	}

	doc, err := New(applicationID, req.Type, req.FileName, req.ExtractedData, requestcontext.Actor(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document")
	}

	s.emitAudit(ctx, applicationID, audit.ActionDocumentUploaded, map[string]string{
		"document_id": doc.ID.String(),
		"type":        doc.Type.String(),
		"file_name":   doc.FileName,
	})
	s.logger.InfoContext(ctx, "document uploaded",
		"application_id", applicationID.String(),
		"document_id", doc.ID.String(),
		"type", doc.Type.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return doc, nil
}

// List returns an application's documents, oldest first.
func (s *Service) List(ctx context.Context, applicationID domain.ApplicationID) ([]*Document, error) {
	if _, err := s.applications.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	return docs, nil
}

// Verify marks a document verified and re-scores the owning application so
// the document factor reflects the new verification share. Officer or admin
// only.
func (s *Service) Verify(ctx context.Context, id domain.DocumentID) (*Document, error) {
	if !requestcontext.Role(ctx).IsStaff() {
		if requestcontext.Role(ctx) == "" {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		}
		return nil, dErrors.New(dErrors.CodeForbidden, "only loan officers may verify documents")
	}

	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load document")
	}

	if err := doc.MarkVerified(requestcontext.Actor(ctx), requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document")
	}

	s.emitAudit(ctx, doc.ApplicationID, audit.ActionDocumentVerified, map[string]string{
		"document_id": doc.ID.String(),
		"type":        doc.Type.String(),
	})

	// A decided application keeps its final assessment; the verification
	// itself still stands.
	if _, err := s.applications.Rescore(ctx, doc.ApplicationID); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeTransitionRejected) {
			s.logger.WarnContext(ctx, "rescore after verification failed",
				"application_id", doc.ApplicationID.String(),
				"document_id", doc.ID.String(),
				"error", err,
			)
		}
	}
	return doc, nil
}

// Counts implements the application service's DocumentSource port.
func (s *Service) Counts(ctx context.Context, applicationID domain.ApplicationID) (int, int, error) {
	return s.store.Counts(ctx, applicationID)
}

func (s *Service) emitAudit(ctx context.Context, applicationID domain.ApplicationID, action audit.Action, detail map[string]string) {
	err := s.auditor.Record(ctx, audit.Event{
		ApplicationID: applicationID,
		Action:        action,
		Actor:         requestcontext.Actor(ctx),
		ActorRole:     requestcontext.Role(ctx),
		Detail:        detail,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record dropped",
			"application_id", applicationID.String(),
			"action", string(action),
		)
	}
}
