package models

import (
	"slices"
	"strings"
	"time"

	"minbar/internal/lifecycle/banpolicy"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
)

// AdminAccount is the aggregate root of the admin lifecycle.
//
// Invariants:
//   - State is never nil; its Status is the account's status
//   - RejectionCount never decreases and only ApplyRejection increments it
//   - Banned is true iff RejectionCount >= banpolicy.MaxRejections; a banned
//     account never has CanReapply set
//   - History only grows
//   - Version increases by one on every committed change
//
// Guards (CanX) and mutations (ApplyX) are split so services can evaluate the
// guard against freshly loaded state inside a store commit.
type AdminAccount struct {
	ID               domain.AdminID `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	State            AccountState   `json:"state"`
	RejectionCount   int            `json:"rejection_count"`
	CanReapply       bool           `json:"can_reapply"`
	Banned           bool           `json:"banned"`
	History          []HistoryEntry `json:"history"`
	CreatedAt        time.Time      `json:"created_at"`
	LastTransitionAt time.Time      `json:"last_transition_at"`
	Version          int64          `json:"version"`
}

// NewAdminAccount creates a Pending application for institutionID.
func NewAdminAccount(id domain.AdminID, info ApplicantInfo, institutionID domain.InstitutionID, now time.Time) (*AdminAccount, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admin account requires an id")
	}
	if institutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admin account requires an institution")
	}
	return &AdminAccount{
		ID:               id,
		Name:             info.Name,
		Email:            info.Email,
		Phone:            info.Phone,
		State:            Pending{InstitutionID: institutionID, AppliedAt: now, Notes: info.Notes},
		History:          []HistoryEntry{},
		CreatedAt:        now,
		LastTransitionAt: now,
	}, nil
}

func (a *AdminAccount) Status() Status {
	return a.State.Status()
}

// InstitutionID returns the institution the current state references.
func (a *AdminAccount) InstitutionID() (domain.InstitutionID, bool) {
	return a.State.Institution()
}

// RejectionsRemaining is how many more rejections the account can take before the ban.
func (a *AdminAccount) RejectionsRemaining() int {
	return banpolicy.Remaining(a.RejectionCount)
}

func (a *AdminAccount) requireStatus(action Action, want Status) error {
	if a.Status() != want {
		return InvalidTransition(action, a.Status(), "")
	}
	return nil
}

func (a *AdminAccount) CanApprove() error {
	return a.requireStatus(ActionApprove, StatusPending)
}

// ApplyApproval moves a Pending account to Approved for the institution it applied to.
func (a *AdminAccount) ApplyApproval(by string, now time.Time) {
	instID, _ := a.InstitutionID()
	a.State = Approved{InstitutionID: instID, ApprovedAt: now, ApprovedBy: by}
	a.LastTransitionAt = now
}

func (a *AdminAccount) CanReject() error {
	return a.requireStatus(ActionReject, StatusPending)
}

// ApplyRejection is the only place RejectionCount changes. It returns the ban decision.
func (a *AdminAccount) ApplyRejection(by, reason string, now time.Time) banpolicy.Decision {
	instID, _ := a.InstitutionID()
	a.RejectionCount++
	decision := banpolicy.Evaluate(a.RejectionCount)
	a.Banned = a.Banned || decision.Banned
	a.CanReapply = false
	a.appendHistory(HistoryEntry{
		Status:        StatusRejected,
		InstitutionID: instID,
		Reason:        reason,
		PerformedBy:   by,
		Timestamp:     now,
	})
	a.State = Rejected{InstitutionID: instID, Reason: reason, RejectedAt: now, RejectedBy: by}
	a.LastTransitionAt = now
	return decision
}

func (a *AdminAccount) CanRemove() error {
	return a.requireStatus(ActionRemove, StatusApproved)
}

func (a *AdminAccount) ApplyRemoval(by, reason string, now time.Time) {
	instID, _ := a.InstitutionID()
	a.appendHistory(HistoryEntry{
		Status:        StatusRemoved,
		InstitutionID: instID,
		Reason:        reason,
		PerformedBy:   by,
		Timestamp:     now,
	})
	a.State = Removed{InstitutionID: instID, Reason: reason, RemovedAt: now, RemovedBy: by}
	a.LastTransitionAt = now
}

func (a *AdminAccount) CanMarkInstitutionDeleted() error {
	return a.requireStatus(ActionDeleteInstitution, StatusApproved)
}

// ApplyInstitutionDeletion records the deleted institution and re-opens
// reapplication, since the admin did nothing wrong.
func (a *AdminAccount) ApplyInstitutionDeletion(snapshot InstitutionSnapshot, by, reason string, now time.Time) {
	snap := snapshot
	a.appendHistory(HistoryEntry{
		Status:        StatusInstitutionDeleted,
		InstitutionID: snapshot.ID,
		Institution:   &snap,
		Reason:        reason,
		PerformedBy:   by,
		Timestamp:     now,
	})
	a.State = InstitutionDeleted{Snapshot: snapshot, Reason: reason, DeletedAt: now, DeletedBy: by}
	a.CanReapply = !a.Banned
	a.LastTransitionAt = now
}

func (a *AdminAccount) CanMarkCodeRegenerated() error {
	return a.requireStatus(ActionRegenerateCode, StatusApproved)
}

// ApplyCodeRegeneration re-opens reapplication so the admin can reclaim with the new code.
func (a *AdminAccount) ApplyCodeRegeneration(by, reason string, now time.Time) {
	instID, _ := a.InstitutionID()
	a.State = CodeRegenerated{InstitutionID: instID, Reason: reason, RegeneratedAt: now, RegeneratedBy: by}
	a.CanReapply = !a.Banned
	a.LastTransitionAt = now
}

// CanGrantReapply rejects banned accounts before anything else: no actor can
// lift a ban.
func (a *AdminAccount) CanGrantReapply() error {
	if a.Banned {
		return dErrors.New(dErrors.CodeBanned, "account is permanently banned from reapplying")
	}
	if !a.Status().IsInactive() {
		return InvalidTransition(ActionGrantReapply, a.Status(), "")
	}
	return nil
}

func (a *AdminAccount) ApplyReapplyGrant(now time.Time) {
	a.CanReapply = true
	a.LastTransitionAt = now
}

// CanStartReapply checks the status half of Reapply; eligibility and the
// institution checks belong to the reapplication validator.
func (a *AdminAccount) CanStartReapply() error {
	if !a.Status().IsInactive() {
		return InvalidTransition(ActionReapply, a.Status(), "")
	}
	return nil
}

// ApplyReapplication returns the account to Pending for institutionID and
// consumes the grant.
func (a *AdminAccount) ApplyReapplication(institutionID domain.InstitutionID, notes string, now time.Time) {
	a.State = Pending{InstitutionID: institutionID, AppliedAt: now, Notes: strings.TrimSpace(notes)}
	a.CanReapply = false
	a.LastTransitionAt = now
}

func (a *AdminAccount) appendHistory(e HistoryEntry) {
	a.History = append(a.History, e)
}

// Clone returns a deep copy. Stores hand out clones so callers cannot mutate stored state.
func (a *AdminAccount) Clone() *AdminAccount {
	if a == nil {
		return nil
	}
	c := *a
	c.History = slices.Clone(a.History)
	for i := range c.History {
		if snap := c.History[i].Institution; snap != nil {
			s := *snap
			c.History[i].Institution = &s
		}
	}
	if c.History == nil {
		c.History = []HistoryEntry{}
	}
	return &c
}
