// Package document manages the metadata records attached to a loan
// application: what was uploaded, by whom, and whether an officer has
// verified it. File bytes never pass through this system; only metadata and
// the fields extracted from the file upstream.
package document

import (
	"context"
	"strings"
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// Document is one uploaded document's metadata record.
type Document struct {
	ID            domain.DocumentID    `json:"id"`
	ApplicationID domain.ApplicationID `json:"application_id"`
	Type          domain.DocumentType  `json:"type"`
	FileName      string               `json:"file_name"`

	// ExtractedData holds fields pulled out of the file by whatever did the
	// upload (OCR, form parsing). Opaque to the lifecycle; shown to officers.
	ExtractedData map[string]string `json:"extracted_data,omitempty"`

	Verified   bool       `json:"verified"`
	VerifiedBy string     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// New constructs an unverified document record.
func New(
	applicationID domain.ApplicationID,
	docType domain.DocumentType,
	fileName string,
	extracted map[string]string,
	uploadedBy string,
	now time.Time,
) (*Document, error) {
	if applicationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "application id is required")
	}
	if !docType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid document type %q", string(docType))
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file name is required")
	}

	return &Document{
		ID:            domain.NewDocumentID(),
		ApplicationID: applicationID,
		Type:          docType,
		FileName:      fileName,
		ExtractedData: extracted,
		UploadedBy:    uploadedBy,
		UploadedAt:    now,
	}, nil
}

// MarkVerified flips the verified flag once. Re-verifying is rejected so the
// verifier stamp never silently changes hands.
func (d *Document) MarkVerified(verifiedBy string, now time.Time) error {
	if d.Verified {
		return dErrors.New(dErrors.CodeConflict, "document is already verified")
	}
	d.Verified = true
	d.VerifiedBy = verifiedBy
	t := now
	d.VerifiedAt = &t
	return nil
}

// Clone returns a deep copy so store reads never alias store state.
func (d *Document) Clone() *Document {
	cp := *d
	if d.ExtractedData != nil {
		cp.ExtractedData = make(map[string]string, len(d.ExtractedData))
		for k, v := range d.ExtractedData {
			cp.ExtractedData[k] = v
		}
	}
	if d.VerifiedAt != nil {
		t := *d.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

// Store is the persistence contract for document metadata.
type Store interface {
	Add(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (*Document, error)
	ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]*Document, error)
	// Update persists a mutated record previously read from the store.
	Update(ctx context.Context, doc *Document) error
	// Counts reports verification progress; it feeds the risk engine's
	// document factor.
	Counts(ctx context.Context, applicationID domain.ApplicationID) (total, verified int, err error)
}
