package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/sentinel"
)

// DeleteInstitution removes an institution. A claiming admin moves to
// InstitutionDeleted in the same commit, keeps a snapshot of the institution
// in their history, and loses their sessions.
func (s *Service) DeleteInstitution(ctx context.Context, institutionID domain.InstitutionID, actor domain.Actor, reason string) error {
	reason = strings.TrimSpace(reason)
	var inst *models.Institution
	var displaced domain.AdminID
	err := s.run(ctx, models.ActionDeleteInstitution, func(ctx context.Context) error {
		if err := models.ValidateReason(reason); err != nil {
			return err
		}
		return s.withRetry(ctx, models.ActionDeleteInstitution, func(ctx context.Context) error {
			displaced = domain.AdminID{}
			var err error
			inst, err = s.loadInstitution(ctx, institutionID)
			if err != nil {
				return err
			}
			t := models.Transition{
				Institution:         inst,
				ExpectedInstitution: inst.Version,
				DeleteInstitution:   true,
			}
			if !inst.IsClaimed() {
				if err := requireSuperAdmin(models.ActionDeleteInstitution, "", actor); err != nil {
					return err
				}
				return s.store.Commit(ctx, t)
			}

			account, err := s.store.FindAccount(ctx, inst.AdminID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "institution is claimed by a missing account")
			}
			if err != nil {
				return err
			}
			if err := requireSuperAdmin(models.ActionDeleteInstitution, account.Status(), actor); err != nil {
				return err
			}
			if err := account.CanMarkInstitutionDeleted(); err != nil {
				return err
			}
			account.ApplyInstitutionDeletion(inst.Snapshot(), actor.ID, reason, s.clock(ctx))
			t.Account = account
			t.ExpectedAccount = account.Version
			if err := s.store.Commit(ctx, t); err != nil {
				return err
			}
			displaced = account.ID
			return nil
		})
	}, attribute.String("institution_id", institutionID.String()))

	details := map[string]any{"reason": reason}
	if err == nil && !displaced.IsNil() {
		s.revokeSessions(ctx, displaced, s.clock(ctx))
		details["admin_id"] = displaced.String()
	}
	s.record(ctx, audit.ActionInstitutionDeleted, actor, institutionTarget(institutionID, inst), details, err)
	return err
}

// RegenerateCode rotates an institution's verification code. A claiming admin
// moves to CodeRegenerated, releases the institution and loses their sessions;
// they can reclaim it only with the new code. The rotated institution carries
// the new code.
func (s *Service) RegenerateCode(ctx context.Context, institutionID domain.InstitutionID, actor domain.Actor, reason string) (*models.Institution, error) {
	reason = strings.TrimSpace(reason)
	var inst *models.Institution
	var displaced domain.AdminID
	err := s.run(ctx, models.ActionRegenerateCode, func(ctx context.Context) error {
		if err := models.ValidateReason(reason); err != nil {
			return err
		}
		return s.withRetry(ctx, models.ActionRegenerateCode, func(ctx context.Context) error {
			displaced = domain.AdminID{}
			var err error
			inst, err = s.loadInstitution(ctx, institutionID)
			if err != nil {
				return err
			}
			code, err := s.rotateCode(inst.VerificationCode)
			if err != nil {
				return err
			}
			now := s.clock(ctx)
			t := models.Transition{Institution: inst, ExpectedInstitution: inst.Version}

			if inst.IsClaimed() {
				account, err := s.store.FindAccount(ctx, inst.AdminID)
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "institution is claimed by a missing account")
				}
				if err != nil {
					return err
				}
				if err := requireSuperAdmin(models.ActionRegenerateCode, account.Status(), actor); err != nil {
					return err
				}
				if err := account.CanMarkCodeRegenerated(); err != nil {
					return err
				}
				account.ApplyCodeRegeneration(actor.ID, reason, now)
				inst.ApplyRelease(now)
				t.Account = account
				t.ExpectedAccount = account.Version
				displaced = account.ID
			} else if err := requireSuperAdmin(models.ActionRegenerateCode, "", actor); err != nil {
				return err
			}

			inst.ApplyCodeRotation(code, now)
			if err := s.store.Commit(ctx, t); err != nil {
				displaced = domain.AdminID{}
				return err
			}
			return nil
		})
	}, attribute.String("institution_id", institutionID.String()))

	details := map[string]any{"reason": reason}
	if err == nil && !displaced.IsNil() {
		s.revokeSessions(ctx, displaced, s.clock(ctx))
		details["admin_id"] = displaced.String()
	}
	s.record(ctx, audit.ActionCodeRegenerated, actor, institutionTarget(institutionID, inst), details, err)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// rotateCode returns a fresh code that differs from the current one.
func (s *Service) rotateCode(current string) (string, error) {
	for range 3 {
		code, err := s.newCode()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
		}
		if !strings.EqualFold(code, current) {
			return code, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "failed to generate a distinct verification code")
}

// GetInstitution returns the institution including its current code.
func (s *Service) GetInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	var inst *models.Institution
	err := s.run(ctx, "get_institution", func(ctx context.Context) error {
		var err error
		inst, err = s.loadInstitution(ctx, id)
		return err
	}, attribute.String("institution_id", id.String()))
	if err != nil {
		return nil, err
	}
	return inst, nil
}
