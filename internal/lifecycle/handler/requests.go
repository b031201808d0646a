package handler

import (
	"time"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
)

type CreateInstitutionRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Location string `json:"location" validate:"max=200"`
}

// ApplyRequest embeds the applicant's details next to the target institution.
type ApplyRequest struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	models.ApplicantInfo
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type NotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type ReapplyRequest struct {
	InstitutionID    string `json:"institution_id" validate:"required"`
	VerificationCode string `json:"verification_code" validate:"required,max=64"`
	Notes            string `json:"notes" validate:"max=2000"`
}

type SignInRequest struct {
	Email            string `json:"email" validate:"required,email,max=254"`
	InstitutionID    string `json:"institution_id" validate:"required"`
	VerificationCode string `json:"verification_code" validate:"required,max=64"`
}

type PurgeAuditRequest struct {
	OlderThanDays int    `json:"older_than_days"`
	Reason        string `json:"reason"`
}

type BulkDeleteAuditRequest struct {
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
}

// auditQuery is the query string accepted by the audit list and export routes.
type auditQuery struct {
	filter audit.Filter
	page   domain.Page
}

func parseAuditQuery(get func(string) string) (auditQuery, error) {
	var q auditQuery
	q.filter.ActionType = audit.ActionType(get("action_type"))
	q.filter.ActorRole = domain.Role(get("actor_role"))
	q.filter.Search = get("q")
	q.filter.SortAscending = get("sort") == "asc"

	var err error
	if q.filter.From, err = parseTime(get("from"), "from"); err != nil {
		return q, err
	}
	if q.filter.To, err = parseTime(get("to"), "to"); err != nil {
		return q, err
	}
	if q.page, err = parsePage(get); err != nil {
		return q, err
	}
	return q, nil
}

func parseTime(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be an RFC3339 timestamp")
	}
	return t, nil
}
