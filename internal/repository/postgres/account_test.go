package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/ignite/workbooks-sync/internal/account"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func TestAccountCreate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepo(db)
	id, err := repo.Create(context.Background(), "Jane@Example.com", "hash")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if id == "" {
		t.Error("Create() returned empty id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAccountCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewAccountRepo(db)
	_, err := repo.Create(context.Background(), "jane@example.com", "hash")
	if !errors.Is(err, account.ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestAccountDeleteNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM accounts").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAccountRepo(db)
	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestAccountFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM accounts").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewAccountRepo(db)
	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestGetMetaUnsetKeyReturnsEmpty(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT value FROM account_meta").
		WithArgs("acct-1", "workbooks_person_id").
		WillReturnError(sql.ErrNoRows)

	repo := NewAccountRepo(db)
	value, err := repo.GetMeta(context.Background(), "acct-1", account.MetaPersonID)
	if err != nil {
		t.Fatalf("GetMeta() error: %v", err)
	}
	if value != "" {
		t.Errorf("GetMeta() unset = %q, want empty", value)
	}
}

func TestSetMetaUpserts(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO account_meta").
		WithArgs("acct-1", "workbooks_person_id", "42").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepo(db)
	if err := repo.SetMeta(context.Background(), "acct-1", account.MetaPersonID, "42"); err != nil {
		t.Fatalf("SetMeta() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetAllMeta(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("workbooks_person_id", "42").
		AddRow("cf_person_marketing_by_email", "1")
	mock.ExpectQuery("SELECT key, value FROM account_meta").
		WithArgs("acct-1").
		WillReturnRows(rows)

	repo := NewAccountRepo(db)
	meta, err := repo.GetAllMeta(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetAllMeta() error: %v", err)
	}
	if meta["workbooks_person_id"] != "42" || meta["cf_person_marketing_by_email"] != "1" {
		t.Errorf("GetAllMeta() = %v", meta)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
