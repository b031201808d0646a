package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	audit "minbar/pkg/platform/audit"
	pstrings "minbar/pkg/platform/strings"
)

// MaxBulkDelete caps the ids accepted by one BulkDeleteAuditLog call.
const MaxBulkDelete = 1000

var csvHeader = []string{
	"id", "timestamp", "action_type", "category", "outcome",
	"actor_id", "actor_role", "actor_name",
	"target_type", "target_id", "target_name", "details",
}

func validateFilter(f audit.Filter) error {
	if f.ActionType != "" && !f.ActionType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown action type "+string(f.ActionType))
	}
	if f.ActorRole != "" && !f.ActorRole.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown actor role "+string(f.ActorRole))
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return dErrors.New(dErrors.CodeValidation, "from must not be after to")
	}
	return nil
}

// ListAuditLog pages through audit entries, newest first unless the filter asks otherwise.
func (s *Service) ListAuditLog(ctx context.Context, filter audit.Filter, page domain.Page) (*domain.Paged[audit.Entry], error) {
	page = page.Normalize()
	var result domain.Paged[audit.Entry]
	err := s.run(ctx, "list_audit_log", func(ctx context.Context) error {
		if err := validateFilter(filter); err != nil {
			return err
		}
		items, total, err := s.auditLog.List(ctx, filter, page)
		if err != nil {
			return err
		}
		if items == nil {
			items = []audit.Entry{}
		}
		result = domain.Paged[audit.Entry]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportAuditLog writes every entry matching filter to w as CSV, one header row
// then one row per entry in list order.
//
// The export pages by offset, so the upper bound is pinned to the moment the
// export starts. Entries recorded while it runs would otherwise shift the
// pages under it and repeat rows.
func (s *Service) ExportAuditLog(ctx context.Context, filter audit.Filter, w io.Writer) error {
	return s.run(ctx, "export_audit_log", func(ctx context.Context) error {
		if err := validateFilter(filter); err != nil {
			return err
		}
		if start := s.clock(ctx); filter.To.IsZero() || filter.To.After(start) {
			filter.To = start
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
		}
		page := domain.Page{Limit: domain.MaxPageLimit}
		for {
			items, total, err := s.auditLog.List(ctx, filter, page)
			if err != nil {
				return err
			}
			for _, e := range items {
				row, err := csvRow(e)
				if err != nil {
					return err
				}
				if err := cw.Write(row); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
				}
			}
			page.Offset += len(items)
			if len(items) == 0 || page.Offset >= total {
				break
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
		}
		return nil
	})
}

func csvRow(e audit.Entry) ([]string, error) {
	details := ""
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode audit details")
		}
		details = string(b)
	}
	return []string{
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339),
		string(e.ActionType),
		string(e.ActionType.Category()),
		string(e.Outcome),
		e.PerformedBy.ID,
		string(e.PerformedBy.Role),
		e.PerformedBy.Name,
		string(e.Target.Type),
		e.Target.ID,
		e.Target.Name,
		details,
	}, nil
}

func canMaintainAuditLog(actor domain.Actor) error {
	if actor.Role != domain.RoleSuperAdmin && actor.Role != domain.RoleSystem {
		return dErrors.New(dErrors.CodeForbidden, "only a super admin or the system can modify the audit log")
	}
	return nil
}

// PurgeAuditLog deletes entries older than olderThanDays. The purge itself is
// recorded as a new entry after the deletion, so it is never purged by itself.
func (s *Service) PurgeAuditLog(ctx context.Context, actor domain.Actor, olderThanDays int, reason string) (int, error) {
	reason = strings.TrimSpace(reason)
	var deleted int
	var cutoff time.Time
	err := s.run(ctx, models.ActionPurgeAuditLog, func(ctx context.Context) error {
		if olderThanDays < 1 {
			return dErrors.New(dErrors.CodeValidation, "older_than_days must be at least 1")
		}
		if err := models.ValidateJustification(reason); err != nil {
			return err
		}
		if err := canMaintainAuditLog(actor); err != nil {
			return err
		}
		cutoff = s.clock(ctx).AddDate(0, 0, -olderThanDays)
		n, err := s.auditLog.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	}, attribute.Int("older_than_days", olderThanDays))

	details := map[string]any{
		"older_than_days": olderThanDays,
		"reason":          reason,
	}
	if err == nil {
		details["cutoff"] = cutoff.Format(time.RFC3339)
		details["deleted_count"] = deleted
	}
	s.record(ctx, audit.ActionLogsPurged, actor,
		audit.Target{Type: audit.TargetAuditLog, ID: "audit_log", Name: "older than " + strconv.Itoa(olderThanDays) + " days"},
		details, err)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// BulkDeleteAuditLog deletes the named entries. Unknown ids are ignored; the
// count of rows actually removed is returned.
func (s *Service) BulkDeleteAuditLog(ctx context.Context, actor domain.Actor, ids []string, reason string) (int, error) {
	reason = strings.TrimSpace(reason)
	ids = pstrings.DedupeAndTrim(ids)
	var deleted int
	err := s.run(ctx, models.ActionBulkDeleteAudit, func(ctx context.Context) error {
		if len(ids) == 0 {
			return dErrors.New(dErrors.CodeValidation, "ids must not be empty")
		}
		if len(ids) > MaxBulkDelete {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d ids can be deleted at once", MaxBulkDelete))
		}
		if err := models.ValidateJustification(reason); err != nil {
			return err
		}
		if err := canMaintainAuditLog(actor); err != nil {
			return err
		}
		n, err := s.auditLog.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	}, attribute.Int("requested", len(ids)))

	details := map[string]any{
		"requested_count": len(ids),
		"reason":          reason,
	}
	if err == nil {
		details["deleted_count"] = deleted
		details["ids"] = ids
	}
	s.record(ctx, audit.ActionLogsBulkDeleted, actor,
		audit.Target{Type: audit.TargetAuditLog, ID: "audit_log", Name: strconv.Itoa(len(ids)) + " entries"},
		details, err)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
