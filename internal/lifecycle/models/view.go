package models

import (
	"time"

	"minbar/pkg/domain"
)

// AccountStatus is the read model returned by GetAccountStatus.
type AccountStatus struct {
	AdminID             domain.AdminID       `json:"admin_id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	Status              Status               `json:"status"`
	State               AccountState         `json:"state"`
	InstitutionID       domain.InstitutionID `json:"institution_id,omitzero"`
	InstitutionName     string               `json:"institution_name,omitempty"`
	RejectionCount      int                  `json:"rejection_count"`
	RejectionsRemaining int                  `json:"rejections_remaining"`
	CanReapply          bool                 `json:"can_reapply"`
	Banned              bool                 `json:"banned"`
	History             []HistoryEntry       `json:"history"`
	CreatedAt           time.Time            `json:"created_at"`
	LastTransitionAt    time.Time            `json:"last_transition_at"`
}

// NewAccountStatus builds the view. inst may be nil when the account
// references no institution or the institution no longer exists.
func NewAccountStatus(a *AdminAccount, inst *Institution) AccountStatus {
	view := AccountStatus{
		AdminID:             a.ID,
		Name:                a.Name,
		Email:               a.Email,
		Status:              a.Status(),
		State:               a.State,
		RejectionCount:      a.RejectionCount,
		RejectionsRemaining: a.RejectionsRemaining(),
		CanReapply:          a.CanReapply,
		Banned:              a.Banned,
		History:             a.Clone().History,
		CreatedAt:           a.CreatedAt,
		LastTransitionAt:    a.LastTransitionAt,
	}
	if id, ok := a.InstitutionID(); ok {
		view.InstitutionID = id
	}
	if inst != nil {
		view.InstitutionName = inst.Name
	} else if deleted, ok := a.State.(InstitutionDeleted); ok {
		view.InstitutionName = deleted.Snapshot.Name
	}
	return view
}
