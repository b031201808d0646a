package models

import (
	dErrors "minbar/pkg/domain-errors"
)

// Status is the discriminant of an account's state variant.
type Status string

const (
	StatusPending            Status = "pending"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusInstitutionDeleted Status = "institution_deleted"
	StatusRemoved            Status = "removed"
	StatusCodeRegenerated    Status = "code_regenerated"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusInstitutionDeleted,
	StatusRemoved,
	StatusCodeRegenerated,
}

// Statuses returns every status in display order.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}

func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsInactive reports whether the account has been taken out of the approval
// pipeline. Only inactive accounts can be granted or use reapplication.
func (s Status) IsInactive() bool {
	switch s {
	case StatusRejected, StatusRemoved, StatusInstitutionDeleted, StatusCodeRegenerated:
		return true
	}
	return false
}

// ParseStatus parses a status filter value. The empty string is not a status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status: "+raw)
	}
	return s, nil
}
