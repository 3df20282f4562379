package handler

import (
	"strings"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// UploadRequest is the HTTP request body for POST /applications/{id}/documents.
type UploadRequest struct {
	Type          string            `json:"type"`
	FileName      string            `json:"file_name"`
	ExtractedData map[string]string `json:"extracted_data,omitempty"`

	parsedType domain.DocumentType
}

func (r *UploadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	docType, err := domain.ParseDocumentType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = docType

	r.FileName = strings.TrimSpace(r.FileName)
	if r.FileName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "file_name is required")
	}
	if len(r.FileName) > 255 {
		return dErrors.New(dErrors.CodeInvalidInput, "file_name must be at most 255 characters")
	}
	return nil
}

// ParsedType returns the validated document type.
func (r *UploadRequest) ParsedType() domain.DocumentType {
	return r.parsedType
}
