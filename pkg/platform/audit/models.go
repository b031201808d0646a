package audit

import (
	"strings"
	"time"

	"minbar/pkg/domain"
)

// ActionType names the operation an Entry records.
type ActionType string

const (
	ActionInstitutionCreated ActionType = "institution_created"
	ActionAdminApplied       ActionType = "admin_applied"
	ActionAdminApproved      ActionType = "admin_approved"
	ActionAdminRejected      ActionType = "admin_rejected"
	ActionAdminRemoved       ActionType = "admin_removed"
	ActionInstitutionDeleted ActionType = "institution_deleted"
	ActionCodeRegenerated    ActionType = "institution_code_regenerated"
	ActionReapplyGranted     ActionType = "reapply_granted"
	ActionAdminReapplied     ActionType = "admin_reapplied"
	ActionApplicantSignedIn  ActionType = "applicant_signed_in"
	ActionLogsPurged         ActionType = "logs_purged"
	ActionLogsBulkDeleted    ActionType = "logs_bulk_deleted"
)

// EventCategory classifies entries for routing to downstream consumers.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle decisions that form the permanent record.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers actions that alter the audit trail or access to it.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine setup actions.
	CategoryOperations EventCategory = "operations"
)

var actionCategories = map[ActionType]EventCategory{
	ActionAdminApplied:       CategoryCompliance,
	ActionAdminApproved:      CategoryCompliance,
	ActionAdminRejected:      CategoryCompliance,
	ActionAdminRemoved:       CategoryCompliance,
	ActionInstitutionDeleted: CategoryCompliance,
	ActionCodeRegenerated:    CategorySecurity,
	ActionReapplyGranted:     CategoryCompliance,
	ActionAdminReapplied:     CategoryCompliance,
	ActionApplicantSignedIn:  CategorySecurity,
	ActionLogsPurged:         CategorySecurity,
	ActionLogsBulkDeleted:    CategorySecurity,

	ActionInstitutionCreated: CategoryOperations,
}

// Category returns the category for this action. Unknown actions default to operations.
func (a ActionType) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

func (a ActionType) IsValid() bool {
	_, ok := actionCategories[a]
	return ok
}

// Outcome is the result of the call an Entry records.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

type TargetType string

const (
	TargetAdminAccount TargetType = "admin_account"
	TargetInstitution  TargetType = "institution"
	TargetAuditLog     TargetType = "audit_log"
)

// Target identifies what an action was performed on.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name,omitempty"`
}

// Entry is one immutable audit record. Entries are never updated; they are only
// appended, and removed by explicit purge or bulk delete.
type Entry struct {
	ID          string         `json:"id"`
	ActionType  ActionType     `json:"action_type"`
	PerformedBy domain.Actor   `json:"performed_by"`
	Target      Target         `json:"target"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Outcome     Outcome        `json:"outcome"`
}

// Filter narrows ListAuditLog and ExportAuditLog. Zero values match everything.
type Filter struct {
	ActionType ActionType
	ActorRole  domain.Role
	From       time.Time
	To         time.Time
	// Search is a case-insensitive substring matched against actor and target id/name.
	Search        string
	SortAscending bool
}

// Matches applies the filter to a single entry. Stores that cannot push filters
// down to a query engine use it directly.
func (f Filter) Matches(e Entry) bool {
	if f.ActionType != "" && e.ActionType != f.ActionType {
		return false
	}
	if f.ActorRole != "" && e.PerformedBy.Role != f.ActorRole {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{
			e.PerformedBy.ID, e.PerformedBy.Name, e.Target.ID, e.Target.Name,
		}, "\x00"))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// Less orders entries by timestamp descending (or ascending), ties broken by ID.
func (f Filter) Less(a, b Entry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		if f.SortAscending {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Timestamp.After(b.Timestamp)
	}
	if f.SortAscending {
		return a.ID < b.ID
	}
	return a.ID > b.ID
}
