package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	"minbar/pkg/platform/sentinel"
)

// PostgreSQL error codes the store translates into sentinels.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

// PostgresStore persists accounts and institutions. Commit runs in a
// SERIALIZABLE transaction and compares versions with UPDATE ... WHERE version = $n.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const institutionColumns = `id, name, location, verification_code, admin_id, created_at, updated_at, version`

const accountColumns = `id, name, email, phone, status, state, institution_id,
	rejection_count, can_reapply, banned, history, created_at, last_transition_at, version`

func (s *PostgresStore) CreateInstitution(ctx context.Context, inst *models.Institution) error {
	query := `
		INSERT INTO institutions (` + institutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
	`
	_, err := s.db.ExecContext(ctx, query,
		inst.ID.String(), inst.Name, inst.Location, inst.VerificationCode,
		nullableAdmin(inst.AdminID), inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert institution: %w", translate(err))
	}
	inst.Version = 1
	return nil
}

func (s *PostgresStore) FindInstitution(ctx context.Context, id domain.InstitutionID) (*models.Institution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE id = $1`, id.String())
	inst, err := scanInstitution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return inst, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.AdminAccount) error {
	state, history, err := encodeAccount(account)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO admin_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
	`
	_, err = s.db.ExecContext(ctx, query,
		account.ID.String(), account.Name, account.Email, account.Phone,
		string(account.Status()), state, nullableInstitution(account),
		account.RejectionCount, account.CanReapply, account.Banned, history,
		account.CreatedAt, account.LastTransitionAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "admin_accounts_email_key" {
			return fmt.Errorf("email %s: %w", account.Email, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert admin account: %w", translate(err))
	}
	account.Version = 1
	return nil
}

func (s *PostgresStore) FindAccount(ctx context.Context, id domain.AdminID) (*models.AdminAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM admin_accounts WHERE id = $1`, id.String())
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find admin account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) FindAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM admin_accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s: %w", email, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find admin account by email: %w", err)
	}
	return account, nil
}

// ListAccounts returns accounts with the given status, or all when status is empty.
func (s *PostgresStore) ListAccounts(ctx context.Context, status models.Status, page domain.Page) ([]*models.AdminAccount, int, error) {
	page = page.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_accounts WHERE ($1 = '' OR status = $1)`, string(status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count admin accounts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM admin_accounts
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, string(status), page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list admin accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.AdminAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan admin account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate admin accounts: %w", err)
	}
	return accounts, total, nil
}

// Commit writes t atomically. A stale version, a serialization failure, or a
// violated uniqueness backstop all surface as sentinel.ErrConflict.
func (s *PostgresStore) Commit(ctx context.Context, t models.Transition) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin commit: %w", translate(err))
	}
	defer func() { _ = tx.Rollback() }()

	if t.Account != nil {
		if err := updateAccount(ctx, tx, t.Account, t.ExpectedAccount); err != nil {
			return err
		}
	}
	if t.Institution != nil {
		if t.DeleteInstitution {
			err = deleteInstitution(ctx, tx, t.Institution.ID, t.ExpectedInstitution)
		} else {
			err = updateInstitution(ctx, tx, t.Institution, t.ExpectedInstitution)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", translate(err))
	}
	if t.Account != nil {
		t.Account.Version = t.ExpectedAccount + 1
	}
	if t.Institution != nil && !t.DeleteInstitution {
		t.Institution.Version = t.ExpectedInstitution + 1
	}
	return nil
}

func updateAccount(ctx context.Context, tx *sql.Tx, a *models.AdminAccount, expected int64) error {
	state, history, err := encodeAccount(a)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE admin_accounts SET
			status = $3,
			state = $4,
			institution_id = $5,
			rejection_count = $6,
			can_reapply = $7,
			banned = $8,
			history = $9,
			last_transition_at = $10,
			version = version + 1
		WHERE id = $1 AND version = $2
	`,
		a.ID.String(), expected,
		string(a.Status()), state, nullableInstitution(a),
		a.RejectionCount, a.CanReapply, a.Banned, history, a.LastTransitionAt,
	)
	if err != nil {
		return fmt.Errorf("update admin account: %w", translate(err))
	}
	return checkSwapped(ctx, tx, res, "admin_accounts", a.ID.String())
}

func updateInstitution(ctx context.Context, tx *sql.Tx, inst *models.Institution, expected int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE institutions SET
			name = $3,
			location = $4,
			verification_code = $5,
			admin_id = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $1 AND version = $2
	`,
		inst.ID.String(), expected,
		inst.Name, inst.Location, inst.VerificationCode, nullableAdmin(inst.AdminID), inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update institution: %w", translate(err))
	}
	return checkSwapped(ctx, tx, res, "institutions", inst.ID.String())
}

func deleteInstitution(ctx context.Context, tx *sql.Tx, id domain.InstitutionID, expected int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM institutions WHERE id = $1 AND version = $2`, id.String(), expected)
	if err != nil {
		return fmt.Errorf("delete institution: %w", translate(err))
	}
	return checkSwapped(ctx, tx, res, "institutions", id.String())
}

// checkSwapped distinguishes a missing row from a stale version when a
// conditional write touched nothing.
func checkSwapped(ctx context.Context, tx *sql.Tx, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", table, err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s existence check: %w", table, translate(err))
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", table, id, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s %s stale version: %w", table, id, sentinel.ErrConflict)
}

// translate maps contention errors to sentinel.ErrConflict and keeps context errors intact.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.Message, sentinel.ErrConflict)
		}
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (*models.Institution, error) {
	var (
		inst    models.Institution
		id      uuid.UUID
		adminID uuid.NullUUID
	)
	if err := row.Scan(&id, &inst.Name, &inst.Location, &inst.VerificationCode, &adminID,
		&inst.CreatedAt, &inst.UpdatedAt, &inst.Version); err != nil {
		return nil, err
	}
	inst.ID = domain.InstitutionID(id)
	if adminID.Valid {
		inst.AdminID = domain.AdminID(adminID.UUID)
	}
	return &inst, nil
}

func scanAccount(row rowScanner) (*models.AdminAccount, error) {
	var (
		a       models.AdminAccount
		id      uuid.UUID
		status  string
		state   []byte
		instID  uuid.NullUUID
		history []byte
	)
	if err := row.Scan(&id, &a.Name, &a.Email, &a.Phone, &status, &state, &instID,
		&a.RejectionCount, &a.CanReapply, &a.Banned, &history, &a.CreatedAt, &a.LastTransitionAt, &a.Version); err != nil {
		return nil, err
	}
	a.ID = domain.AdminID(id)

	decoded, err := models.DecodeState(models.Status(status), state)
	if err != nil {
		return nil, err
	}
	a.State = decoded
	a.History = []models.HistoryEntry{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &a.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return &a, nil
}

func encodeAccount(a *models.AdminAccount) (state, history []byte, err error) {
	state, err = json.Marshal(a.State)
	if err != nil {
		return nil, nil, fmt.Errorf("encode account state: %w", err)
	}
	h := a.History
	if h == nil {
		h = []models.HistoryEntry{}
	}
	history, err = json.Marshal(h)
	if err != nil {
		return nil, nil, fmt.Errorf("encode account history: %w", err)
	}
	return state, history, nil
}

func nullableInstitution(a *models.AdminAccount) any {
	if id, ok := a.InstitutionID(); ok {
		return id.String()
	}
	return nil
}

func nullableAdmin(id domain.AdminID) any {
	if id.IsNil() {
		return nil
	}
	return id.String()
}
