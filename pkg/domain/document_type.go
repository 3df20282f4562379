package domain

import dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"

// DocumentType categorises an uploaded supporting document.
type DocumentType string

const (
	DocumentSalarySlip    DocumentType = "salary_slip"
	DocumentBankStatement DocumentType = "bank_statement"
	DocumentIDProof       DocumentType = "id_proof"
	DocumentAddressProof  DocumentType = "address_proof"
	DocumentOther         DocumentType = "other"
)

var validDocumentTypes = map[DocumentType]bool{
	DocumentSalarySlip:    true,
	DocumentBankStatement: true,
	DocumentIDProof:       true,
	DocumentAddressProof:  true,
	DocumentOther:         true,
}

// ParseDocumentType constructs a DocumentType from external input.
func ParseDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document type cannot be empty")
	}
	t := DocumentType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid document type %q", s)
	}
	return t, nil
}

// IsValid checks if the document type is one of the supported enum values.
func (t DocumentType) IsValid() bool {
	return validDocumentTypes[t]
}

func (t DocumentType) String() string {
	return string(t)
}
