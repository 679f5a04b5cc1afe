package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/workbooks-sync/internal/organisation"
)

// OrganisationRepo implements organisation.Repository against PostgreSQL.
// The table mirrors the remote organisation list; the bulk resync replaces
// it wholesale while request-time lookups upsert single rows.
type OrganisationRepo struct{ db *sql.DB }

// NewOrganisationRepo creates a Postgres-backed organisation cache repository.
func NewOrganisationRepo(db *sql.DB) *OrganisationRepo { return &OrganisationRepo{db: db} }

func (r *OrganisationRepo) FindByName(ctx context.Context, name string) (*organisation.CachedOrg, error) {
	var org organisation.CachedOrg
	err := r.db.QueryRowContext(ctx, `
		SELECT workbooks_id, name, object_ref, synced_at
		FROM organisation_cache
		WHERE name = $1
	`, name).Scan(&org.WorkbooksID, &org.Name, &org.ObjectRef, &org.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find organisation: %w", err)
	}
	return &org, nil
}

func (r *OrganisationRepo) Upsert(ctx context.Context, org organisation.CachedOrg) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organisation_cache (workbooks_id, name, object_ref, synced_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (workbooks_id) DO UPDATE SET name = $2, object_ref = $3, synced_at = NOW()
	`, org.WorkbooksID, org.Name, org.ObjectRef)
	if err != nil {
		return fmt.Errorf("upsert organisation: %w", err)
	}
	return nil
}

// ReplaceAll swaps the full cache contents in one transaction. Used by the
// daily bulk resync.
func (r *OrganisationRepo) ReplaceAll(ctx context.Context, orgs []organisation.CachedOrg) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE organisation_cache`); err != nil {
		return fmt.Errorf("truncate organisation cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO organisation_cache (workbooks_id, name, object_ref, synced_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (workbooks_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, org := range orgs {
		if _, err := stmt.ExecContext(ctx, org.WorkbooksID, org.Name, org.ObjectRef); err != nil {
			return fmt.Errorf("insert organisation %d: %w", org.WorkbooksID, err)
		}
	}

	return tx.Commit()
}

func (r *OrganisationRepo) All(ctx context.Context) ([]organisation.CachedOrg, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT workbooks_id, name, object_ref, synced_at
		FROM organisation_cache
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	defer rows.Close()

	var out []organisation.CachedOrg
	for rows.Next() {
		var org organisation.CachedOrg
		if err := rows.Scan(&org.WorkbooksID, &org.Name, &org.ObjectRef, &org.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan organisation: %w", err)
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (r *OrganisationRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organisation_cache`).Scan(&n)
	return n, err
}
