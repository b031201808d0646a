package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"minbar/internal/lifecycle/models"
	"minbar/internal/lifecycle/throttle"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/sentinel"
)

// CreateInstitution registers an institution with a freshly generated
// verification code. The code is on the returned institution and nowhere else.
func (s *Service) CreateInstitution(ctx context.Context, actor domain.Actor, name, location string) (*models.Institution, error) {
	id := s.newInstitutionID()
	var created *models.Institution
	err := s.run(ctx, models.ActionCreateInstitution, func(ctx context.Context) error {
		if !actor.IsSuperAdmin() {
			return dErrors.New(dErrors.CodeForbidden, "only a super admin can create institutions")
		}
		code, err := s.newCode()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
		}
		inst, err := models.NewInstitution(id, name, location, code, s.clock(ctx))
		if err != nil {
			return err
		}
		if err := s.store.CreateInstitution(ctx, inst); err != nil {
			return err
		}
		created = inst
		return nil
	}, attribute.String("institution_id", id.String()))

	s.record(ctx, audit.ActionInstitutionCreated, actor,
		audit.Target{Type: audit.TargetInstitution, ID: id.String(), Name: name},
		map[string]any{"location": location}, err)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ApplyForInstitution creates a Pending account for institutionID. The
// applicant proves their link to the institution with its current code.
func (s *Service) ApplyForInstitution(ctx context.Context, actor domain.Actor, info models.ApplicantInfo, institutionID domain.InstitutionID) (*models.AdminAccount, error) {
	adminID := s.newAdminID()
	info.Normalize()
	var account *models.AdminAccount
	var inst *models.Institution
	err := s.run(ctx, models.ActionApply, func(ctx context.Context) error {
		if err := info.Validate(); err != nil {
			return err
		}
		if err := s.allow(throttle.Key("apply", callerKey(ctx, actor), institutionID.String())); err != nil {
			return err
		}
		var err error
		inst, err = s.loadInstitution(ctx, institutionID)
		if err != nil {
			return err
		}
		if inst.IsClaimed() {
			return dErrors.New(dErrors.CodeInstitutionAlreadyClaimed, "institution already has an approved admin")
		}
		if !inst.CodeMatches(info.VerificationCode) {
			return dErrors.New(dErrors.CodeInvalidVerificationCode, "verification code does not match")
		}
		account, err = models.NewAdminAccount(adminID, info, inst.ID, s.clock(ctx))
		if err != nil {
			return err
		}
		if err := s.store.CreateAccount(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Wrap(err, dErrors.CodeValidation, "an account with this email already exists")
			}
			return err
		}
		return nil
	}, attribute.String("institution_id", institutionID.String()))

	// Applicants are anonymous until the account exists.
	if actor.ID == "" {
		actor = domain.Actor{ID: adminID.String(), Role: domain.RoleApplicant, Name: info.Name}
	}
	details := map[string]any{
		"institution_id": institutionID.String(),
		"email":          info.Email,
	}
	if inst != nil {
		details["institution_name"] = inst.Name
	}
	s.record(ctx, audit.ActionAdminApplied, actor,
		audit.Target{Type: audit.TargetAdminAccount, ID: adminID.String(), Name: info.Name},
		details, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}
