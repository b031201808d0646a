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
)

// Approve makes a Pending applicant the admin of the institution they applied
// to. The claim and the account transition commit together; of two concurrent
// approvals for one institution exactly one succeeds.
func (s *Service) Approve(ctx context.Context, adminID domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
	var account *models.AdminAccount
	err := s.run(ctx, models.ActionApprove, func(ctx context.Context) error {
		return s.withRetry(ctx, models.ActionApprove, func(ctx context.Context) error {
			var err error
			account, err = s.loadAccount(ctx, adminID)
			if err != nil {
				return err
			}
			if err := requireSuperAdmin(models.ActionApprove, account.Status(), actor); err != nil {
				return err
			}
			if err := account.CanApprove(); err != nil {
				return err
			}
			instID, _ := account.InstitutionID()
			inst, err := s.loadInstitution(ctx, instID)
			if err != nil {
				return err
			}
			if err := inst.CanBeClaimedBy(account.ID); err != nil {
				return err
			}

			now := s.clock(ctx)
			account.ApplyApproval(actor.ID, now)
			inst.ApplyClaim(account.ID, now)
			return s.store.Commit(ctx, models.AccountCommit(account).WithInstitution(inst))
		})
	}, attribute.String("admin_id", adminID.String()))

	details := map[string]any{}
	if account != nil {
		if instID, ok := account.InstitutionID(); ok {
			details["institution_id"] = instID.String()
		}
	}
	s.record(ctx, audit.ActionAdminApproved, actor, accountTarget(adminID, account), details, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Reject turns down a Pending application. It is the only operation that
// counts toward the ban.
func (s *Service) Reject(ctx context.Context, adminID domain.AdminID, actor domain.Actor, reason string) (*models.AdminAccount, error) {
	reason = strings.TrimSpace(reason)
	var account *models.AdminAccount
	var banned bool
	err := s.run(ctx, models.ActionReject, func(ctx context.Context) error {
		if err := models.ValidateReason(reason); err != nil {
			return err
		}
		return s.withRetry(ctx, models.ActionReject, func(ctx context.Context) error {
			var err error
			account, err = s.loadAccount(ctx, adminID)
			if err != nil {
				return err
			}
			if err := requireSuperAdmin(models.ActionReject, account.Status(), actor); err != nil {
				return err
			}
			if err := account.CanReject(); err != nil {
				return err
			}
			wasBanned := account.Banned
			decision := account.ApplyRejection(actor.ID, reason, s.clock(ctx))
			if err := s.store.Commit(ctx, models.AccountCommit(account)); err != nil {
				return err
			}
			banned = decision.Banned && !wasBanned
			return nil
		})
	}, attribute.String("admin_id", adminID.String()))

	if banned {
		s.logger.WarnContext(ctx, "admin account banned after repeated rejections",
			"admin_id", adminID.String(),
		)
		if s.metrics != nil {
			s.metrics.IncBan()
		}
	}
	details := map[string]any{"reason": reason}
	if account != nil && err == nil {
		details["rejection_count"] = account.RejectionCount
		details["banned"] = account.Banned
	}
	s.record(ctx, audit.ActionAdminRejected, actor, accountTarget(adminID, account), details, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RemoveAdmin takes an Approved admin off their institution and frees it for
// a new claim.
func (s *Service) RemoveAdmin(ctx context.Context, adminID domain.AdminID, actor domain.Actor, reason string) (*models.AdminAccount, error) {
	reason = strings.TrimSpace(reason)
	var account *models.AdminAccount
	err := s.run(ctx, models.ActionRemove, func(ctx context.Context) error {
		if err := models.ValidateReason(reason); err != nil {
			return err
		}
		return s.withRetry(ctx, models.ActionRemove, func(ctx context.Context) error {
			var err error
			account, err = s.loadAccount(ctx, adminID)
			if err != nil {
				return err
			}
			if err := requireSuperAdmin(models.ActionRemove, account.Status(), actor); err != nil {
				return err
			}
			if err := account.CanRemove(); err != nil {
				return err
			}
			now := s.clock(ctx)
			instID, _ := account.InstitutionID()
			t := models.AccountCommit(account)
			inst, err := s.store.FindInstitution(ctx, instID)
			switch {
			case err == nil:
				if inst.AdminID == account.ID {
					inst.ApplyRelease(now)
					t = t.WithInstitution(inst)
				}
			case !errors.Is(err, sentinel.ErrNotFound):
				return err
			}
			account.ApplyRemoval(actor.ID, reason, now)
			return s.store.Commit(ctx, t)
		})
	}, attribute.String("admin_id", adminID.String()))

	if err == nil {
		s.revokeSessions(ctx, adminID, s.clock(ctx))
	}
	s.record(ctx, audit.ActionAdminRemoved, actor, accountTarget(adminID, account),
		map[string]any{"reason": reason}, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GrantReapply lets an inactive, unbanned account apply again. A ban can
// never be lifted, whoever asks.
func (s *Service) GrantReapply(ctx context.Context, adminID domain.AdminID, actor domain.Actor, notes string) (*models.AdminAccount, error) {
	notes = strings.TrimSpace(notes)
	var account *models.AdminAccount
	err := s.run(ctx, models.ActionGrantReapply, func(ctx context.Context) error {
		return s.withRetry(ctx, models.ActionGrantReapply, func(ctx context.Context) error {
			var err error
			account, err = s.loadAccount(ctx, adminID)
			if err != nil {
				return err
			}
			if err := account.CanGrantReapply(); err != nil {
				return err
			}
			if err := requireSuperAdmin(models.ActionGrantReapply, account.Status(), actor); err != nil {
				return err
			}
			account.ApplyReapplyGrant(s.clock(ctx))
			return s.store.Commit(ctx, models.AccountCommit(account))
		})
	}, attribute.String("admin_id", adminID.String()))

	details := map[string]any{}
	if notes != "" {
		details["notes"] = notes
	}
	s.record(ctx, audit.ActionReapplyGranted, actor, accountTarget(adminID, account), details, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Reapply returns an inactive account to Pending for institutionID. The
// validator pins the versions it checked; if either row moved before the
// commit the call fails with conflict and is not retried.
func (s *Service) Reapply(ctx context.Context, adminID domain.AdminID, actor domain.Actor, institutionID domain.InstitutionID, submittedCode, notes string) (*models.AdminAccount, error) {
	notes = strings.TrimSpace(notes)
	var account *models.AdminAccount
	var inst *models.Institution
	err := s.run(ctx, models.ActionReapply, func(ctx context.Context) error {
		var err error
		account, err = s.loadAccount(ctx, adminID)
		if err != nil {
			return err
		}
		if !actor.IsApplicant(adminID) {
			return models.InvalidTransition(models.ActionReapply, account.Status(), "only the account owner can reapply")
		}
		if err := account.CanStartReapply(); err != nil {
			return err
		}
		if err := s.allow(throttle.Key("reapply", actor.ID, institutionID.String())); err != nil {
			return err
		}
		token, err := s.validator.Validate(ctx, account, institutionID, submittedCode)
		if err != nil {
			return err
		}
		if err := token.Consume(); err != nil {
			return err
		}
		inst = token.Institution

		now := s.clock(ctx)
		account.ApplyReapplication(token.InstitutionID, notes, now)
		inst.Touch(now)
		err = s.store.Commit(ctx, models.Transition{
			Account:             account,
			ExpectedAccount:     token.AccountVersion,
			Institution:         inst,
			ExpectedInstitution: token.InstitutionVersion,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncConflict(string(models.ActionReapply), false)
			}
			return dErrors.Wrap(err, dErrors.CodeConflict, "account or institution changed during reapplication")
		}
		return err
	}, attribute.String("admin_id", adminID.String()), attribute.String("institution_id", institutionID.String()))

	details := map[string]any{"institution_id": institutionID.String()}
	if inst != nil {
		details["institution_name"] = inst.Name
	}
	if notes != "" {
		details["notes"] = notes
	}
	s.record(ctx, audit.ActionAdminReapplied, actor, accountTarget(adminID, account), details, err)
	if err != nil {
		return nil, err
	}
	return account, nil
}
