// Package reconcile links local accounts to their remote CRM Person records.
// The protocol is search-then-link-or-create: an existing remote Person with a
// matching email is linked, anything else results in a create. Remote writes
// that succeed without returning a usable id are tolerated as soft successes
// so a flaky CRM never strands a registration.
package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/ignite/workbooks-sync/internal/pkg/logger"
	"github.com/ignite/workbooks-sync/internal/workbooks"
)

// CRM is the slice of the API client the reconciler needs.
type CRM interface {
	FindPersonByEmail(ctx context.Context, email string) (*workbooks.Record, error)
	Create(ctx context.Context, resource string, payload map[string]string) (*workbooks.WriteResult, error)
}

// LinkResult reports how an account ended up attached to the CRM.
type LinkResult struct {
	// PersonID is the remote Person id, or 0 on a soft failure.
	PersonID int64
	// ObjectRef is the remote object reference, when known.
	ObjectRef string
	// Linked is true when an existing remote Person was matched by email.
	Linked bool
	// Created is true when a new remote Person was created.
	Created bool
	// SoftFailure is true when the remote accepted the create but returned no
	// usable id. The account stays; identifiers are cached on a later sync.
	SoftFailure bool
}

// Reconciler attaches local accounts to remote Person records.
type Reconciler struct {
	crm   CRM
	store account.Store
}

// New creates a Reconciler.
func New(crm CRM, store account.Store) *Reconciler {
	return &Reconciler{crm: crm, store: store}
}

// EnsurePerson guarantees the account has a remote Person behind it.
//
// The remote is searched by email first. An exact (case-insensitive) match is
// linked: its identifiers are cached on the account and no create happens. A
// hit whose email does not actually match the query — the remote search can
// return fuzzy matches — is logged and a new Person is created anyway; a
// duplicate on the remote is preferable to silently attaching the account to
// the wrong record. No match also creates.
//
// A create that errors is fatal and returned to the caller, which decides
// whether to roll the account back. A create that succeeds without a usable
// id is reported as a soft failure, not an error.
func (r *Reconciler) EnsurePerson(ctx context.Context, accountID, email string, payload map[string]string) (LinkResult, error) {
	match, err := r.crm.FindPersonByEmail(ctx, email)
	if err != nil {
		// A failed search is not fatal: fall through to create, which is the
		// write that actually matters. Worst case is a remote duplicate.
		logger.Warn("person search failed, attempting create", "account_id", accountID, "error", err.Error())
		match = nil
	}

	if match != nil {
		if strings.EqualFold(match.Email, email) {
			if err := r.cacheIdentifiers(ctx, accountID, match.ID, match.LockVersion, match.ObjectRef); err != nil {
				return LinkResult{}, err
			}
			logger.Info("linked account to existing person", "account_id", accountID, "person_id", match.ID)
			return LinkResult{PersonID: match.ID, ObjectRef: match.ObjectRef, Linked: true}, nil
		}
		logger.Warn("ambiguous person match, creating new record", "account_id", accountID, "person_id", match.ID)
	}

	result, err := r.crm.Create(ctx, workbooks.ResourcePeople, payload)
	if err != nil {
		return LinkResult{}, fmt.Errorf("create person: %w", err)
	}

	obj, ok := result.First()
	if !ok {
		logger.Warn("person create returned no id, keeping account unlinked", "account_id", accountID)
		return LinkResult{Created: true, SoftFailure: true}, nil
	}

	if err := r.cacheIdentifiers(ctx, accountID, obj.ID, obj.LockVersion, obj.ObjectRef); err != nil {
		return LinkResult{}, err
	}
	logger.Info("created remote person", "account_id", accountID, "person_id", obj.ID)
	return LinkResult{PersonID: obj.ID, ObjectRef: obj.ObjectRef, Created: true}, nil
}

func (r *Reconciler) cacheIdentifiers(ctx context.Context, accountID string, personID, lockVersion int64, objectRef string) error {
	if err := r.store.SetMeta(ctx, accountID, account.MetaPersonID, strconv.FormatInt(personID, 10)); err != nil {
		return fmt.Errorf("cache person id: %w", err)
	}
	if err := r.store.SetMeta(ctx, accountID, account.MetaLockVersion, strconv.FormatInt(lockVersion, 10)); err != nil {
		return fmt.Errorf("cache lock version: %w", err)
	}
	if objectRef != "" {
		if err := r.store.SetMeta(ctx, accountID, account.MetaObjectRef, objectRef); err != nil {
			return fmt.Errorf("cache object ref: %w", err)
		}
	}
	return nil
}
