package interest

import (
	"context"
	"net/url"
	"testing"

	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/ignite/workbooks-sync/internal/fields"
)

// memStore is a minimal in-memory account.Store for metadata tests.
type memStore struct {
	meta map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{meta: map[string]map[string]string{}}
}

func (m *memStore) Create(ctx context.Context, email, password string) (string, error) {
	return "acct-1", nil
}
func (m *memStore) Delete(ctx context.Context, id string) error { return nil }
func (m *memStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (m *memStore) FindByEmail(ctx context.Context, email string) (string, error) {
	return "", account.ErrNotFound
}
func (m *memStore) GetMeta(ctx context.Context, id, key string) (string, error) {
	return m.meta[id][key], nil
}
func (m *memStore) SetMeta(ctx context.Context, id, key, value string) error {
	if m.meta[id] == nil {
		m.meta[id] = map[string]string{}
	}
	m.meta[id][key] = value
	return nil
}
func (m *memStore) GetAllMeta(ctx context.Context, id string) (map[string]string, error) {
	out := make(map[string]string, len(m.meta[id]))
	for k, v := range m.meta[id] {
		out[k] = v
	}
	return out, nil
}

func submission(formValues map[string]string) fields.FormSubmission {
	values := url.Values{}
	for k, v := range formValues {
		values.Set(k, v)
	}
	return fields.ParseNative(values)
}

func TestFlagsStoredAsZeroOrOne(t *testing.T) {
	store := newMemStore()
	sub := submission(map[string]string{
		"marketing_email":     "on",
		"marketing_telephone": "false",
		"toi_net_zero":        "yes",
	})

	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	meta := store.meta["acct-1"]
	if meta["cf_person_marketing_by_email"] != "1" {
		t.Errorf("marketing_by_email = %q, want 1", meta["cf_person_marketing_by_email"])
	}
	if meta["cf_person_marketing_by_telephone"] != "0" {
		t.Errorf("marketing_by_telephone = %q, want 0", meta["cf_person_marketing_by_telephone"])
	}
	if meta["cf_person_toi_net_zero"] != "1" {
		t.Errorf("toi_net_zero = %q, want 1", meta["cf_person_toi_net_zero"])
	}
}

func TestTopicSelectionDerivesAreas(t *testing.T) {
	store := newMemStore()
	sub := submission(map[string]string{"toi_net_zero": "1"})

	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	meta := store.meta["acct-1"]
	if meta["cf_person_aoi_sustainability"] != "1" {
		t.Errorf("aoi_sustainability = %q, want derived 1", meta["cf_person_aoi_sustainability"])
	}
	if meta["cf_person_aoi_strategy"] != "1" {
		t.Errorf("aoi_strategy = %q, want derived 1", meta["cf_person_aoi_strategy"])
	}
}

func TestDerivationNeverOverridesExplicitChoice(t *testing.T) {
	store := newMemStore()
	// User explicitly opted out of strategy content earlier.
	store.SetMeta(context.Background(), "acct-1", "cf_person_aoi_strategy", "0")

	sub := submission(map[string]string{"toi_net_zero": "1"})
	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	meta := store.meta["acct-1"]
	if meta["cf_person_aoi_strategy"] != "0" {
		t.Errorf("explicit aoi_strategy=0 overridden by derivation: %q", meta["cf_person_aoi_strategy"])
	}
	// Areas without an explicit choice still derive.
	if meta["cf_person_aoi_sustainability"] != "1" {
		t.Errorf("aoi_sustainability = %q, want 1", meta["cf_person_aoi_sustainability"])
	}
}

func TestExplicitAreaInSameSubmissionWins(t *testing.T) {
	store := newMemStore()
	sub := submission(map[string]string{
		"toi_finance":    "1",
		"aoi_compliance": "0", // explicit opt-out alongside a topic that derives it
	})

	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	meta := store.meta["acct-1"]
	if meta["cf_person_aoi_compliance"] != "0" {
		t.Errorf("explicit aoi_compliance=0 overridden: %q", meta["cf_person_aoi_compliance"])
	}
	if meta["cf_person_aoi_strategy"] != "1" {
		t.Errorf("aoi_strategy = %q, want derived 1", meta["cf_person_aoi_strategy"])
	}
}

func TestExistingFlagAtOneStaysOne(t *testing.T) {
	store := newMemStore()
	store.SetMeta(context.Background(), "acct-1", "cf_person_aoi_people", "1")

	sub := submission(map[string]string{"toi_workforce": "1"})
	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if got := store.meta["acct-1"]["cf_person_aoi_people"]; got != "1" {
		t.Errorf("aoi_people = %q, want 1", got)
	}
}

func TestOmittedFlagsAreNotCleared(t *testing.T) {
	store := newMemStore()
	store.SetMeta(context.Background(), "acct-1", "cf_person_toi_net_zero", "1")
	store.SetMeta(context.Background(), "acct-1", "cf_person_marketing_by_email", "1")

	// A later submission that omits both fields entirely.
	sub := submission(map[string]string{"toi_workforce": "1"})
	if err := Apply(context.Background(), store, "acct-1", sub); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	meta := store.meta["acct-1"]
	if meta["cf_person_toi_net_zero"] != "1" {
		t.Errorf("omitted toi_net_zero cleared: %q", meta["cf_person_toi_net_zero"])
	}
	if meta["cf_person_marketing_by_email"] != "1" {
		t.Errorf("omitted marketing flag cleared: %q", meta["cf_person_marketing_by_email"])
	}
}

func TestUnknownTopicDerivesNothing(t *testing.T) {
	if areas := DerivedAreas("cf_person_toi_untracked"); areas != nil {
		t.Errorf("DerivedAreas(unknown) = %v, want nil", areas)
	}
}
