package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/throttle"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/sentinel"
	"minbar/pkg/requestcontext"
)

// SignIn lets an applicant prove who they are again after their sessions were
// revoked or expired. They name the institution their account points at and
// its current verification code. An account whose institution was deleted
// points at none, so any existing institution's code is accepted; that is the
// institution they would reapply to.
//
// An unknown email, a different institution and a wrong code all fail the same
// way so the endpoint cannot be used to discover accounts.
func (s *Service) SignIn(ctx context.Context, email string, institutionID domain.InstitutionID, code string) (*models.AdminAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var account *models.AdminAccount
	err := s.run(ctx, models.ActionSignIn, func(ctx context.Context) error {
		if email == "" || strings.TrimSpace(code) == "" {
			return dErrors.New(dErrors.CodeValidation, "email and verification_code are required")
		}
		client := throttle.ClientKey(requestcontext.ClientIP(ctx))
		if err := s.allow(throttle.Key("sign_in", client, institutionID.String())); err != nil {
			return err
		}

		found, err := s.store.FindAccountByEmail(ctx, email)
		if errors.Is(err, sentinel.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}
		inst, err := s.store.FindInstitution(ctx, institutionID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}
		if current, ok := found.InstitutionID(); ok && current != institutionID {
			return errBadCredentials
		}
		if !inst.CodeMatches(code) {
			return errBadCredentials
		}
		account = found
		return nil
	}, attribute.String("institution_id", institutionID.String()))

	actor := domain.Actor{Role: domain.RoleApplicant}
	target := audit.Target{Type: audit.TargetAdminAccount, Name: email}
	if account != nil {
		actor = domain.Actor{ID: account.ID.String(), Role: domain.RoleApplicant, Name: account.Name}
		target = accountTarget(account.ID, account)
	}
	s.record(ctx, audit.ActionApplicantSignedIn, actor, target,
		map[string]any{"email": email, "institution_id": institutionID.String()}, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

var errBadCredentials = dErrors.New(dErrors.CodeUnauthorized, "email or verification code does not match")
