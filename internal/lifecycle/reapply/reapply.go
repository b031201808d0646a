// Package reapply validates that an inactive admin account may reclaim an
// institution, and issues the single-use token the lifecycle service needs to
// commit the reapplication.
package reapply

import (
	"context"
	"errors"
	"sync/atomic"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	"minbar/pkg/platform/sentinel"
)

// InstitutionFinder loads the current state of an institution.
type InstitutionFinder interface {
	FindInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error)
}

// Token proves a reapplication was validated against specific versions of the
// account and the institution. It can be consumed once.
type Token struct {
	AdminID            domain.AdminID
	InstitutionID      domain.InstitutionID
	AccountVersion     int64
	InstitutionVersion int64
	// Institution is the state the code was checked against.
	Institution *models.Institution

	used atomic.Bool
}

// Consume marks the token used. A second call fails with conflict.
func (t *Token) Consume() error {
	if !t.used.CompareAndSwap(false, true) {
		return dErrors.New(dErrors.CodeConflict, "reapplication token already used")
	}
	return nil
}

type Validator struct {
	institutions InstitutionFinder
}

func New(institutions InstitutionFinder) *Validator {
	return &Validator{institutions: institutions}
}

// Validate runs the eligibility checks in order; the first failure wins:
//  1. banned
//  2. reapplication not granted
//  3. institution not found
//  4. institution already claimed
//  5. verification code mismatch
func (v *Validator) Validate(ctx context.Context, admin *models.AdminAccount, institutionID domain.InstitutionID, submittedCode string) (*Token, error) {
	if admin.Banned {
		return nil, dErrors.New(dErrors.CodeBanned, "account is permanently banned from reapplying")
	}
	if !admin.CanReapply {
		return nil, dErrors.New(dErrors.CodeReapplicationNotGranted, "reapplication has not been granted")
	}

	inst, err := v.institutions.FindInstitution(ctx, institutionID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeInstitutionNotFound, "institution not found")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "institution lookup timed out")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load institution")
		}
	}

	if inst.IsClaimed() {
		return nil, dErrors.New(dErrors.CodeInstitutionAlreadyClaimed, "institution already has an approved admin")
	}
	if !inst.CodeMatches(submittedCode) {
		return nil, dErrors.New(dErrors.CodeInvalidVerificationCode, "verification code does not match")
	}

	return &Token{
		AdminID:            admin.ID,
		InstitutionID:      inst.ID,
		AccountVersion:     admin.Version,
		InstitutionVersion: inst.Version,
		Institution:        inst,
	}, nil
}
