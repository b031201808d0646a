package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"minbar/pkg/domain"
	audit "minbar/pkg/platform/audit"
	txcontext "minbar/pkg/platform/tx"
)

// PostgresStore implements audit.Store on the audit_entries table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, action_type, actor_id, actor_role, actor_name,
	target_type, target_id, target_name, details, occurred_at, outcome`

// Append inserts an entry. Entries are immutable so duplicate IDs are ignored.
func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = txcontext.Or(ctx, s.db).ExecContext(ctx, query,
		entry.ID,
		string(entry.ActionType),
		entry.PerformedBy.ID,
		string(entry.PerformedBy.Role),
		entry.PerformedBy.Name,
		string(entry.Target.Type),
		entry.Target.ID,
		entry.Target.Name,
		payload,
		entry.Timestamp,
		string(entry.Outcome),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns one page of entries matching filter plus the total match count.
func (s *PostgresStore) List(ctx context.Context, filter audit.Filter, page domain.Page) ([]audit.Entry, int, error) {
	page = page.Normalize()
	where, args := whereClause(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM audit_entries%s ORDER BY occurred_at %s, id %s LIMIT $%d OFFSET $%d`,
		entryColumns, where, direction, direction, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// deleteLockTimeout bounds how long a purge waits for row locks held by
// concurrent writers. SET LOCAL only lasts for the enclosing transaction.
const deleteLockTimeout = `SET LOCAL lock_timeout = '5s'`

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return s.delete(ctx, "purge audit entries", `DELETE FROM audit_entries WHERE occurred_at < $1`, cutoff)
}

func (s *PostgresStore) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.delete(ctx, "bulk delete audit entries", `DELETE FROM audit_entries WHERE id = ANY($1)`, pq.Array(ids))
}

func (s *PostgresStore) delete(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		exec := txcontext.Or(ctx, s.db)
		if _, err := exec.ExecContext(ctx, deleteLockTimeout); err != nil {
			return fmt.Errorf("%s: set lock timeout: %w", op, err)
		}
		res, err := exec.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		n, err = rowsAffected(res)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("audit rows affected: %w", err)
	}
	return int(n), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func whereClause(filter audit.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActionType != "" {
		conds = append(conds, "action_type = "+arg(string(filter.ActionType)))
	}
	if filter.ActorRole != "" {
		conds = append(conds, "actor_role = "+arg(string(filter.ActorRole)))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "occurred_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "occurred_at <= "+arg(filter.To))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		p := arg("%" + likeEscaper.Replace(q) + "%")
		conds = append(conds, fmt.Sprintf(
			"(actor_id ILIKE %[1]s OR actor_name ILIKE %[1]s OR target_id ILIKE %[1]s OR target_name ILIKE %[1]s)", p))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			action  string
			role    string
			tType   string
			outcome string
			details []byte
		)
		if err := rows.Scan(
			&e.ID, &action, &e.PerformedBy.ID, &role, &e.PerformedBy.Name,
			&tType, &e.Target.ID, &e.Target.Name, &details, &e.Timestamp, &outcome,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActionType = audit.ActionType(action)
		e.PerformedBy.Role = domain.Role(role)
		e.Target.Type = audit.TargetType(tType)
		e.Outcome = audit.Outcome(outcome)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
