package models

import (
	"encoding/json"
	"fmt"
	"time"

	"minbar/pkg/domain"
)

// AccountState is the per-status payload of an AdminAccount. Each status has
// exactly one concrete type carrying only the fields that status needs.
type AccountState interface {
	Status() Status
	// Institution returns the institution the account currently points at, if any.
	Institution() (domain.InstitutionID, bool)
	isAccountState()
}

// Pending is an open application for InstitutionID.
type Pending struct {
	InstitutionID domain.InstitutionID `json:"institution_id"`
	AppliedAt     time.Time            `json:"applied_at"`
	Notes         string               `json:"notes,omitempty"`
}

// Approved means the account administers InstitutionID.
type Approved struct {
	InstitutionID domain.InstitutionID `json:"institution_id"`
	ApprovedAt    time.Time            `json:"approved_at"`
	ApprovedBy    string               `json:"approved_by"`
}

type Rejected struct {
	InstitutionID domain.InstitutionID `json:"institution_id"`
	Reason        string               `json:"reason"`
	RejectedAt    time.Time            `json:"rejected_at"`
	RejectedBy    string               `json:"rejected_by"`
}

type Removed struct {
	InstitutionID domain.InstitutionID `json:"institution_id"`
	Reason        string               `json:"reason"`
	RemovedAt     time.Time            `json:"removed_at"`
	RemovedBy     string               `json:"removed_by"`
}

// InstitutionDeleted keeps a snapshot because the institution row no longer exists.
type InstitutionDeleted struct {
	Snapshot  InstitutionSnapshot `json:"institution"`
	Reason    string              `json:"reason"`
	DeletedAt time.Time           `json:"deleted_at"`
	DeletedBy string              `json:"deleted_by"`
}

// CodeRegenerated means the institution's code was rotated out from under the admin.
type CodeRegenerated struct {
	InstitutionID domain.InstitutionID `json:"institution_id"`
	Reason        string               `json:"reason"`
	RegeneratedAt time.Time            `json:"regenerated_at"`
	RegeneratedBy string               `json:"regenerated_by"`
}

func (Pending) Status() Status            { return StatusPending }
func (Approved) Status() Status           { return StatusApproved }
func (Rejected) Status() Status           { return StatusRejected }
func (Removed) Status() Status            { return StatusRemoved }
func (InstitutionDeleted) Status() Status { return StatusInstitutionDeleted }
func (CodeRegenerated) Status() Status    { return StatusCodeRegenerated }

func (s Pending) Institution() (domain.InstitutionID, bool)  { return s.InstitutionID, true }
func (s Approved) Institution() (domain.InstitutionID, bool) { return s.InstitutionID, true }
func (s Rejected) Institution() (domain.InstitutionID, bool) { return s.InstitutionID, true }
func (s Removed) Institution() (domain.InstitutionID, bool)  { return s.InstitutionID, true }
func (s CodeRegenerated) Institution() (domain.InstitutionID, bool) {
	return s.InstitutionID, true
}

// The institution is gone, so the account no longer references one.
func (InstitutionDeleted) Institution() (domain.InstitutionID, bool) {
	return domain.InstitutionID{}, false
}

func (Pending) isAccountState()            {}
func (Approved) isAccountState()           {}
func (Rejected) isAccountState()           {}
func (Removed) isAccountState()            {}
func (InstitutionDeleted) isAccountState() {}
func (CodeRegenerated) isAccountState()    {}

// DecodeState rebuilds a state variant from its status and JSON payload.
func DecodeState(status Status, raw []byte) (AccountState, error) {
	var (
		state AccountState
		err   error
	)
	switch status {
	case StatusPending:
		state, err = decodeAs[Pending](raw)
	case StatusApproved:
		state, err = decodeAs[Approved](raw)
	case StatusRejected:
		state, err = decodeAs[Rejected](raw)
	case StatusRemoved:
		state, err = decodeAs[Removed](raw)
	case StatusInstitutionDeleted:
		state, err = decodeAs[InstitutionDeleted](raw)
	case StatusCodeRegenerated:
		state, err = decodeAs[CodeRegenerated](raw)
	default:
		return nil, fmt.Errorf("unknown account status %q", status)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s state: %w", status, err)
	}
	return state, nil
}

func decodeAs[T AccountState](raw []byte) (AccountState, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
