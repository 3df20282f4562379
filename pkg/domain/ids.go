// Package domain holds the shared value types of the loan origination domain:
// typed identifiers, lifecycle enums, and the parsing helpers that enforce
// their invariants at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain-errors"
)

// Typed IDs prevent cross-type assignment at compile time: an ApplicationID
// can never be passed where a UserID is expected.
//
// Invariant: IDs must be valid, non-empty, non-nil UUIDs. Construct via the
// Parse* functions at trust boundaries; direct casting bypasses validation.
type (
	// ApplicationID identifies a loan application.
	ApplicationID uuid.UUID

	// UserID identifies an account (customer, officer or admin).
	UserID uuid.UUID

	// DocumentID identifies an uploaded supporting document.
	DocumentID uuid.UUID
)

// parseUUID is the shared validation core for all typed IDs.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrapf(err, dErrors.CodeInvalidInput, "invalid %s", label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", label)
	}
	return u, nil
}

// NewApplicationID generates a fresh application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// ParseApplicationID constructs an ApplicationID from external input.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	return ApplicationID(u), err
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps the canonical uuid form on every wire format.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(text []byte) error {
	parsed, err := ParseApplicationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID generates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewDocumentID generates a fresh document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseDocumentID constructs a DocumentID from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DocumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
