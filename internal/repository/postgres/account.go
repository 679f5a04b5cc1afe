package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/lib/pq"
)

// AccountRepo implements account.Store against PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, email, password string) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password, created_at)
		VALUES ($1, LOWER($2), $3, NOW())
	`, id, email, password)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", account.ErrDuplicateEmail
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = LOWER($1))`,
		email,
	).Scan(&exists)
	return exists, err
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE email = LOWER($1)`,
		email,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", account.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find account by email: %w", err)
	}
	return id, nil
}

func (r *AccountRepo) GetMeta(ctx context.Context, id, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM account_meta WHERE account_id = $1 AND key = $2`,
		id, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

func (r *AccountRepo) SetMeta(ctx context.Context, id, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_meta (account_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id, key) DO UPDATE SET value = $3, updated_at = NOW()
	`, id, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (r *AccountRepo) GetAllMeta(ctx context.Context, id string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM account_meta WHERE account_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get all meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// NormalizeEmail is the canonical form used for local identity comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
