// Package account defines the local account store the sync layer reconciles
// against. The store owns credentials and an open-ended key/value metadata
// map per account; CRM identifiers are cached in that map under the keys
// declared here.
package account

import (
	"context"
	"errors"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound       = errors.New("account: not found")
	ErrDuplicateEmail = errors.New("account: email already registered")
)

// Metadata keys. Local metadata keys are the canonical CRM field names so the
// local copy reads the same as the remote payload.
const (
	MetaPersonID    = "workbooks_person_id"
	MetaObjectRef   = "workbooks_object_ref"
	MetaEmployerID  = "workbooks_employer_id"
	MetaEmployer    = "employer_name"
	MetaLockVersion = "workbooks_lock_version"
)

// Store holds local accounts and their metadata.
type Store interface {
	// Create registers a new local account. Returns ErrDuplicateEmail if the
	// email is already taken.
	Create(ctx context.Context, email, password string) (string, error)

	// Delete permanently removes an account and its metadata. Used by the
	// registration rollback path; there is no soft delete.
	Delete(ctx context.Context, id string) error

	// ExistsByEmail reports whether an account with this email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindByEmail returns the account id for an email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (string, error)

	// GetMeta returns the metadata value for key, or "" if unset.
	GetMeta(ctx context.Context, id, key string) (string, error)

	// SetMeta upserts one metadata value.
	SetMeta(ctx context.Context, id, key, value string) error

	// GetAllMeta returns the full metadata map for an account.
	GetAllMeta(ctx context.Context, id string) (map[string]string, error)
}
