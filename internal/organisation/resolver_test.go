package organisation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/workbooks-sync/internal/workbooks"
)

type fakeRepo struct {
	byName   map[string]*CachedOrg
	upserts  []CachedOrg
	replaced [][]CachedOrg
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byName: map[string]*CachedOrg{}}
}

func (f *fakeRepo) FindByName(ctx context.Context, name string) (*CachedOrg, error) {
	return f.byName[name], nil
}

func (f *fakeRepo) Upsert(ctx context.Context, org CachedOrg) error {
	f.upserts = append(f.upserts, org)
	f.byName[org.Name] = &org
	return nil
}

func (f *fakeRepo) ReplaceAll(ctx context.Context, orgs []CachedOrg) error {
	f.replaced = append(f.replaced, orgs)
	f.byName = map[string]*CachedOrg{}
	for i := range orgs {
		f.byName[orgs[i].Name] = &orgs[i]
	}
	return nil
}

func (f *fakeRepo) All(ctx context.Context) ([]CachedOrg, error) {
	var out []CachedOrg
	for _, org := range f.byName {
		out = append(out, *org)
	}
	return out, nil
}

type fakeCRM struct {
	found     *workbooks.Record
	findErr   error
	createErr error
	creates   int
	pages     [][]workbooks.Record
	searches  int
}

func (f *fakeCRM) FindOrganisationByName(ctx context.Context, name string) (*workbooks.Record, error) {
	return f.found, f.findErr
}

func (f *fakeCRM) Create(ctx context.Context, resource string, payload map[string]string) (*workbooks.WriteResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	return &workbooks.WriteResult{AffectedObjects: []workbooks.AffectedObject{
		{ID: 99, ObjectRef: "ORG-99"},
	}}, nil
}

func (f *fakeCRM) Search(ctx context.Context, resource string, filters []workbooks.Filter, start, limit int) ([]workbooks.Record, error) {
	if f.searches >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.searches]
	f.searches++
	return page, nil
}

func TestResolveCacheHitSkipsRemote(t *testing.T) {
	repo := newFakeRepo()
	repo.byName["Acme Ltd"] = &CachedOrg{WorkbooksID: 7, Name: "Acme Ltd"}
	crm := &fakeCRM{}
	r := NewResolver(repo, crm, nil, nil, 0)

	if id := r.Resolve(context.Background(), "Acme Ltd"); id != 7 {
		t.Errorf("Resolve() = %d, want 7", id)
	}
	if crm.creates != 0 {
		t.Error("cache hit must not touch the remote")
	}
}

func TestResolveRemoteSearchHitIsCached(t *testing.T) {
	repo := newFakeRepo()
	crm := &fakeCRM{found: &workbooks.Record{ID: 8, Name: "Bolt plc", ObjectRef: "ORG-8"}}
	r := NewResolver(repo, crm, nil, nil, 0)

	if id := r.Resolve(context.Background(), "Bolt plc"); id != 8 {
		t.Errorf("Resolve() = %d, want 8", id)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(repo.upserts))
	}

	// Second resolve is served from the cache: no create, same id.
	crm.found = nil
	if id := r.Resolve(context.Background(), "Bolt plc"); id != 8 {
		t.Errorf("second Resolve() = %d, want 8", id)
	}
	if crm.creates != 0 {
		t.Error("cached organisation must not be re-created remotely")
	}
}

func TestResolveCreatesWhenUnknownEverywhere(t *testing.T) {
	repo := newFakeRepo()
	crm := &fakeCRM{}
	r := NewResolver(repo, crm, nil, nil, 0)

	if id := r.Resolve(context.Background(), "Fresh Co"); id != 99 {
		t.Errorf("Resolve() = %d, want 99", id)
	}
	if crm.creates != 1 {
		t.Errorf("creates = %d, want 1", crm.creates)
	}
	if len(repo.upserts) != 1 || repo.upserts[0].Name != "Fresh Co" {
		t.Errorf("created organisation not cached: %+v", repo.upserts)
	}
}

func TestResolveSearchFailureIsNonFatal(t *testing.T) {
	repo := newFakeRepo()
	crm := &fakeCRM{findErr: errors.New("remote down")}
	r := NewResolver(repo, crm, nil, nil, 0)

	if id := r.Resolve(context.Background(), "Fresh Co"); id != 0 {
		t.Errorf("Resolve() on search failure = %d, want 0", id)
	}
	if crm.creates != 0 {
		t.Error("failed search must not fall through to create")
	}
}

func TestResolveFailureIsNonFatal(t *testing.T) {
	repo := newFakeRepo()
	crm := &fakeCRM{createErr: errors.New("remote down")}
	r := NewResolver(repo, crm, nil, nil, 0)

	if id := r.Resolve(context.Background(), "Fresh Co"); id != 0 {
		t.Errorf("Resolve() on failure = %d, want 0", id)
	}
}

func TestResolveEmptyName(t *testing.T) {
	r := NewResolver(newFakeRepo(), &fakeCRM{}, nil, nil, 0)
	if id := r.Resolve(context.Background(), ""); id != 0 {
		t.Errorf("Resolve(\"\") = %d, want 0", id)
	}
}

func TestResyncAllPaginatesAndReplaces(t *testing.T) {
	repo := newFakeRepo()
	crm := &fakeCRM{pages: [][]workbooks.Record{
		{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		{{ID: 3, Name: "C"}},
	}}
	r := NewResolver(repo, crm, nil, nil, 2)

	count, err := r.ResyncAll(context.Background())
	if err != nil {
		t.Fatalf("ResyncAll() error: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(repo.replaced) != 1 || len(repo.replaced[0]) != 3 {
		t.Errorf("ReplaceAll not called with full set: %+v", repo.replaced)
	}
	if crm.searches != 2 {
		t.Errorf("remote pages fetched = %d, want 2", crm.searches)
	}
}

type memWriter struct {
	saves [][]byte
}

func (m *memWriter) Save(ctx context.Context, data []byte) error {
	m.saves = append(m.saves, data)
	return nil
}

func TestRefreshSnapshotWritesDocument(t *testing.T) {
	repo := newFakeRepo()
	repo.byName["Acme Ltd"] = &CachedOrg{WorkbooksID: 7, Name: "Acme Ltd", SyncedAt: time.Now()}
	writer := &memWriter{}
	r := NewResolver(repo, &fakeCRM{}, nil, writer, 0)

	r.RefreshSnapshot(context.Background())

	if len(writer.saves) != 1 {
		t.Fatalf("snapshot saves = %d, want 1", len(writer.saves))
	}
}

func TestCurrentSnapshotRebuildsFromRepo(t *testing.T) {
	repo := newFakeRepo()
	repo.byName["Acme Ltd"] = &CachedOrg{WorkbooksID: 7, Name: "Acme Ltd"}
	r := NewResolver(repo, &fakeCRM{}, nil, nil, 0)

	snap, err := r.CurrentSnapshot(context.Background())
	if err != nil {
		t.Fatalf("CurrentSnapshot() error: %v", err)
	}
	if len(snap.Organisations) != 1 {
		t.Errorf("snapshot orgs = %d, want 1", len(snap.Organisations))
	}
}
