package models

import (
	"fmt"

	dErrors "minbar/pkg/domain-errors"
)

// Action names a lifecycle operation in transition errors, metrics and spans.
type Action string

const (
	ActionApply             Action = "apply"
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionRemove            Action = "remove_admin"
	ActionDeleteInstitution Action = "delete_institution"
	ActionRegenerateCode    Action = "regenerate_code"
	ActionGrantReapply      Action = "grant_reapply"
	ActionReapply           Action = "reapply"
	ActionSignIn            Action = "sign_in"
	ActionCreateInstitution Action = "create_institution"
	ActionPurgeAuditLog     Action = "purge_audit_log"
	ActionBulkDeleteAudit   Action = "bulk_delete_audit_log"
)

// TransitionError carries the attempted action and the state it was attempted from.
// It is wrapped in an invalid_transition domain error; use errors.As to read it.
type TransitionError struct {
	Action Action
	From   Status
	// Detail explains a mismatch other than the status, e.g. the wrong actor.
	Detail string
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("cannot %s: %s", e.Action, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("cannot %s from %s: %s", e.Action, e.From, e.Detail)
	}
	return fmt.Sprintf("cannot %s from %s", e.Action, e.From)
}

// InvalidTransition builds the domain error for an unmatched state table row.
func InvalidTransition(action Action, from Status, detail string) error {
	te := &TransitionError{Action: action, From: from, Detail: detail}
	return dErrors.Wrap(te, dErrors.CodeInvalidTransition, te.Error())
}
