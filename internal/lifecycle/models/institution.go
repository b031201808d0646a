package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
)

// Institution is an organization an admin can claim.
//
// Invariants:
//   - AdminID is set iff exactly one AdminAccount is Approved for this institution
//   - VerificationCode is never empty
//   - Version increases by one on every committed change
type Institution struct {
	ID               domain.InstitutionID `json:"id"`
	Name             string               `json:"name"`
	Location         string               `json:"location"`
	VerificationCode string               `json:"-"`
	AdminID          domain.AdminID       `json:"admin_id,omitzero"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Version          int64                `json:"version"`
}

// InstitutionSnapshot preserves what an institution looked like when it was deleted.
type InstitutionSnapshot struct {
	ID       domain.InstitutionID `json:"id"`
	Name     string               `json:"name"`
	Location string               `json:"location"`
}

func NewInstitution(id domain.InstitutionID, name, location, code string, now time.Time) (*Institution, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "institution name is required")
	}
	if len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeValidation, "institution name must be 200 characters or less")
	}
	if len(location) > 300 {
		return nil, dErrors.New(dErrors.CodeValidation, "institution location must be 300 characters or less")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "institution requires a verification code")
	}
	return &Institution{
		ID:               id,
		Name:             name,
		Location:         location,
		VerificationCode: code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsClaimed reports whether an approved admin currently holds the institution.
func (i *Institution) IsClaimed() bool {
	return !i.AdminID.IsNil()
}

// CanBeClaimedBy checks the exclusivity guard for approving adminID.
func (i *Institution) CanBeClaimedBy(adminID domain.AdminID) error {
	if i.IsClaimed() && i.AdminID != adminID {
		return dErrors.New(dErrors.CodeInstitutionAlreadyClaimed, "institution already has an approved admin")
	}
	return nil
}

func (i *Institution) ApplyClaim(adminID domain.AdminID, now time.Time) {
	i.AdminID = adminID
	i.UpdatedAt = now
}

// ApplyRelease clears the owner after the admin leaves the approved state.
func (i *Institution) ApplyRelease(now time.Time) {
	i.AdminID = domain.AdminID{}
	i.UpdatedAt = now
}

func (i *Institution) ApplyCodeRotation(code string, now time.Time) {
	i.VerificationCode = code
	i.UpdatedAt = now
}

// Touch marks the row as changed so concurrent writers pinned to the previous
// version lose their compare-and-swap.
func (i *Institution) Touch(now time.Time) {
	i.UpdatedAt = now
}

var fold = cases.Fold()

// CodeMatches compares submitted against the current code, ignoring case and
// surrounding whitespace.
func (i *Institution) CodeMatches(submitted string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	return fold.String(submitted) == fold.String(strings.TrimSpace(i.VerificationCode))
}

func (i *Institution) Snapshot() InstitutionSnapshot {
	return InstitutionSnapshot{ID: i.ID, Name: i.Name, Location: i.Location}
}

func (i *Institution) Clone() *Institution {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
