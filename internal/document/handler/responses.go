package handler

import (
	"time"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/document"
)

// DocumentResponse is the HTTP representation of a document record.
type DocumentResponse struct {
	ID            string            `json:"id"`
	ApplicationID string            `json:"application_id"`
	Type          string            `json:"type"`
	FileName      string            `json:"file_name"`
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	Verified      bool              `json:"verified"`
	VerifiedBy    string            `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time        `json:"verified_at,omitempty"`
	UploadedBy    string            `json:"uploaded_by"`
	UploadedAt    time.Time         `json:"uploaded_at"`
}

// FromModel converts a document record to its HTTP representation.
func FromModel(doc *document.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:            doc.ID.String(),
		ApplicationID: doc.ApplicationID.String(),
		Type:          string(doc.Type),
		FileName:      doc.FileName,
		ExtractedData: doc.ExtractedData,
		Verified:      doc.Verified,
		VerifiedBy:    doc.VerifiedBy,
		VerifiedAt:    doc.VerifiedAt,
		UploadedBy:    doc.UploadedBy,
		UploadedAt:    doc.UploadedAt,
	}
}

// ListResponse wraps an application's document list.
type ListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Count     int                 `json:"count"`
}

// FromModels converts a list of document records.
func FromModels(docs []*document.Document) *ListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromModel(doc))
	}
	return &ListResponse{Documents: out, Count: len(out)}
}
