// Package member orchestrates the registration, event-registration and
// profile-update flows: local account writes, remote Person reconciliation,
// preference application, employer resolution, and the compensating rollback
// that keeps the two sides from drifting apart.
package member

import (
	"context"
	"errors"
	"net/mail"
	"strconv"

	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/ignite/workbooks-sync/internal/fields"
	"github.com/ignite/workbooks-sync/internal/interest"
	"github.com/ignite/workbooks-sync/internal/pkg/logger"
	"github.com/ignite/workbooks-sync/internal/reconcile"
	"github.com/ignite/workbooks-sync/internal/workbooks"
)

// Validation errors, detected before any remote call.
var (
	ErrInvalidEmail     = errors.New("member: invalid email address")
	ErrMissingPassword  = errors.New("member: password is required")
	ErrDuplicateAccount = errors.New("member: email already registered")
	ErrUnknownAccount   = errors.New("member: no account for email")
	ErrNotLinked        = errors.New("member: account has no linked person")
)

// Reconciler is the person-linking dependency.
type Reconciler interface {
	EnsurePerson(ctx context.Context, accountID, email string, payload map[string]string) (reconcile.LinkResult, error)
}

// OrgResolver maps employer names to remote organisation ids.
type OrgResolver interface {
	Resolve(ctx context.Context, name string) int64
}

// CRM is the slice of the API client the update flow needs.
type CRM interface {
	Update(ctx context.Context, resource string, payload map[string]string) (*workbooks.WriteResult, error)
}

// Result reports the outcome of a registration flow.
type Result struct {
	AccountID string
	PersonID  int64
	Linked    bool
	// SoftFailure means the remote accepted the person but returned no id;
	// the account is kept without cached identifiers.
	SoftFailure bool
}

// Service runs the member-facing sync flows.
type Service struct {
	store      account.Store
	reconciler Reconciler
	orgs       OrgResolver
	crm        CRM
}

// New creates a member service. orgs and crm may be nil in reduced setups.
func New(store account.Store, reconciler Reconciler, orgs OrgResolver, crm CRM) *Service {
	return &Service{store: store, reconciler: reconciler, orgs: orgs, crm: crm}
}

// Register creates a local account and reconciles it against the remote CRM.
//
// Validation failures abort before anything is created. A fatal remote
// failure after the local account exists triggers the compensating rollback:
// the account is deleted (best effort, one attempt) and the error returned.
// A soft success keeps the account with no cached remote identifiers.
func (s *Service) Register(ctx context.Context, sub fields.FormSubmission) (Result, error) {
	if err := validate(sub); err != nil {
		return Result{}, err
	}

	exists, err := s.store.ExistsByEmail(ctx, sub.Email)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, ErrDuplicateAccount
	}

	accountID, err := s.store.Create(ctx, sub.Email, sub.Password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return Result{}, ErrDuplicateAccount
		}
		return Result{}, err
	}

	link, err := s.reconciler.EnsurePerson(ctx, accountID, sub.Email, sub.PersonPayload())
	if err != nil {
		s.rollback(ctx, accountID, sub.Email)
		return Result{}, err
	}

	s.applyProfile(ctx, accountID, sub)

	return Result{
		AccountID:   accountID,
		PersonID:    link.PersonID,
		Linked:      link.Linked,
		SoftFailure: link.SoftFailure,
	}, nil
}

// RegisterEvent handles webinar / lead-generation registrations. The account
// may already exist; if it does, it is reused and never rolled back. An
// account created here is rolled back on a fatal remote failure, same as the
// membership flow.
func (s *Service) RegisterEvent(ctx context.Context, sub fields.FormSubmission) (Result, error) {
	if _, err := mail.ParseAddress(sub.Email); err != nil {
		return Result{}, ErrInvalidEmail
	}

	accountID, err := s.store.FindByEmail(ctx, sub.Email)
	createdHere := false
	if errors.Is(err, account.ErrNotFound) {
		accountID, err = s.store.Create(ctx, sub.Email, sub.Password)
		createdHere = true
	}
	if err != nil {
		return Result{}, err
	}

	link, err := s.reconciler.EnsurePerson(ctx, accountID, sub.Email, sub.PersonPayload())
	if err != nil {
		if createdHere {
			s.rollback(ctx, accountID, sub.Email)
		}
		return Result{}, err
	}

	s.applyProfile(ctx, accountID, sub)

	return Result{
		AccountID:   accountID,
		PersonID:    link.PersonID,
		Linked:      link.Linked,
		SoftFailure: link.SoftFailure,
	}, nil
}

// UpdateProfile pushes new profile and preference values to an account's
// already-linked Person using the cached id and lock_version, then re-applies
// preferences locally. There is no rollback here; the local account predates
// this call.
func (s *Service) UpdateProfile(ctx context.Context, sub fields.FormSubmission) (Result, error) {
	if _, err := mail.ParseAddress(sub.Email); err != nil {
		return Result{}, ErrInvalidEmail
	}

	accountID, err := s.store.FindByEmail(ctx, sub.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Result{}, ErrUnknownAccount
		}
		return Result{}, err
	}

	personID, err := s.store.GetMeta(ctx, accountID, account.MetaPersonID)
	if err != nil {
		return Result{}, err
	}
	lockVersion, err := s.store.GetMeta(ctx, accountID, account.MetaLockVersion)
	if err != nil {
		return Result{}, err
	}
	if personID == "" || lockVersion == "" {
		return Result{}, ErrNotLinked
	}

	payload := sub.PersonPayload()
	payload[workbooks.FieldID] = personID
	payload[workbooks.FieldLockVersion] = lockVersion

	result, err := s.crm.Update(ctx, workbooks.ResourcePeople, payload)
	if err != nil {
		return Result{}, err
	}
	if obj, ok := result.First(); ok {
		// The remote bumps lock_version on every write; keep the cached copy
		// current or the next update is rejected as stale.
		if err := s.store.SetMeta(ctx, accountID, account.MetaLockVersion, strconv.FormatInt(obj.LockVersion, 10)); err != nil {
			logger.Warn("failed to cache new lock version", "account_id", accountID, "error", err.Error())
		}
	}

	s.applyProfile(ctx, accountID, sub)

	id, _ := strconv.ParseInt(personID, 10, 64)
	return Result{AccountID: accountID, PersonID: id, Linked: true}, nil
}

// applyProfile stores the submission's local metadata, applies preference
// derivation, and resolves the employer. All of it is non-fatal: the person
// sync already succeeded, so failures here only log.
func (s *Service) applyProfile(ctx context.Context, accountID string, sub fields.FormSubmission) {
	for key, value := range sub.LocalMeta() {
		if err := s.store.SetMeta(ctx, accountID, key, value); err != nil {
			logger.Warn("failed to store metadata", "account_id", accountID, "key", key, "error", err.Error())
		}
	}

	if err := interest.Apply(ctx, s.store, accountID, sub); err != nil {
		logger.Warn("preference application failed", "account_id", accountID, "error", err.Error())
	}

	if sub.Employer == "" || s.orgs == nil {
		return
	}
	if orgID := s.orgs.Resolve(ctx, sub.Employer); orgID != 0 {
		if err := s.store.SetMeta(ctx, accountID, account.MetaEmployerID, strconv.FormatInt(orgID, 10)); err != nil {
			logger.Warn("failed to store employer id", "account_id", accountID, "error", err.Error())
		}
	}
}

// rollback deletes a local account after a fatal remote failure. Single
// attempt; a failed delete is only logged.
func (s *Service) rollback(ctx context.Context, accountID, email string) {
	logger.Warn("rolling back local account after remote failure", "account_id", accountID, "email", email)
	if err := s.store.Delete(ctx, accountID); err != nil {
		logger.Error("rollback delete failed, account orphaned", "account_id", accountID, "error", err.Error())
	}
}

func validate(sub fields.FormSubmission) error {
	if _, err := mail.ParseAddress(sub.Email); err != nil {
		return ErrInvalidEmail
	}
	if sub.Password == "" {
		return ErrMissingPassword
	}
	return nil
}
