package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "minbar/pkg/domain-errors"
)

// Typed identifiers keep account and institution IDs from being swapped at call sites.
type (
	AdminID       uuid.UUID
	InstitutionID uuid.UUID
)

func (id AdminID) String() string       { return uuid.UUID(id).String() }
func (id AdminID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) String() string { return uuid.UUID(id).String() }
func (id InstitutionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewAdminID returns a random account identifier.
func NewAdminID() AdminID { return AdminID(uuid.New()) }

// NewInstitutionID returns a random institution identifier.
func NewInstitutionID() InstitutionID { return InstitutionID(uuid.New()) }

// ParseAdminID parses a non-nil UUID.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin id")
	if err != nil {
		return AdminID{}, err
	}
	return AdminID(u), nil
}

// ParseInstitutionID parses a non-nil UUID.
func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution id")
	if err != nil {
		return InstitutionID{}, err
	}
	return InstitutionID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	return u, nil
}

func (id AdminID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AdminID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AdminID(u)
	return nil
}

func (id InstitutionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *InstitutionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = InstitutionID(u)
	return nil
}
