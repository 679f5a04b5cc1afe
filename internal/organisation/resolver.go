// Package organisation maps employer name strings to remote Organisation ids,
// caching results locally so repeated lookups avoid remote round-trips.
package organisation

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ignite/workbooks-sync/internal/pkg/logger"
	"github.com/ignite/workbooks-sync/internal/workbooks"
)

// CachedOrg is one row of the local organisation mirror.
type CachedOrg struct {
	WorkbooksID int64     `json:"id"`
	Name        string    `json:"name"`
	ObjectRef   string    `json:"object_ref"`
	SyncedAt    time.Time `json:"synced_at"`
}

// Snapshot is the denormalized document served to autocomplete clients and
// written to the snapshot store.
type Snapshot struct {
	GeneratedAt   time.Time   `json:"generated_at"`
	Organisations []CachedOrg `json:"organisations"`
}

// Repository is the local cache table.
type Repository interface {
	FindByName(ctx context.Context, name string) (*CachedOrg, error)
	Upsert(ctx context.Context, org CachedOrg) error
	ReplaceAll(ctx context.Context, orgs []CachedOrg) error
	All(ctx context.Context) ([]CachedOrg, error)
}

// CRM is the slice of the Workbooks client the resolver needs.
type CRM interface {
	FindOrganisationByName(ctx context.Context, name string) (*workbooks.Record, error)
	Create(ctx context.Context, resource string, payload map[string]string) (*workbooks.WriteResult, error)
	Search(ctx context.Context, resource string, filters []workbooks.Filter, start, limit int) ([]workbooks.Record, error)
}

// SnapshotWriter persists the serialized snapshot document (local file,
// optionally mirrored to S3).
type SnapshotWriter interface {
	Save(ctx context.Context, data []byte) error
}

// Resolver resolves employer names with a cache-table → remote-search →
// remote-create lookup order. Resolution failures are non-fatal: callers get
// id 0 and proceed without an organisation link.
type Resolver struct {
	repo     Repository
	crm      CRM
	cache    *SnapshotCache // optional Redis cache, may be nil
	writer   SnapshotWriter // optional, may be nil
	pageSize int
}

// NewResolver creates an organisation resolver. cache and writer may be nil.
func NewResolver(repo Repository, crm CRM, cache *SnapshotCache, writer SnapshotWriter, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Resolver{repo: repo, crm: crm, cache: cache, writer: writer, pageSize: pageSize}
}

// Resolve maps an organisation name to its remote id. Returns 0 when the name
// is empty or resolution fails; it never fails the calling flow.
// Name matching is exact and case-sensitive throughout.
func (r *Resolver) Resolve(ctx context.Context, name string) int64 {
	if name == "" {
		return 0
	}

	// 1. Local cache table
	cached, err := r.repo.FindByName(ctx, name)
	if err != nil {
		logger.Warn("organisation cache lookup failed", "name", name, "error", err.Error())
	} else if cached != nil {
		return cached.WorkbooksID
	}

	// 2. Remote search by exact name
	rec, err := r.crm.FindOrganisationByName(ctx, name)
	if err != nil {
		logger.Warn("organisation remote search failed", "name", name, "error", err.Error())
		return 0
	}
	if rec != nil {
		r.remember(ctx, CachedOrg{WorkbooksID: rec.ID, Name: rec.Name, ObjectRef: rec.ObjectRef})
		return rec.ID
	}

	// 3. Remote create
	result, err := r.crm.Create(ctx, workbooks.ResourceOrganisations, map[string]string{
		workbooks.FieldOrgName: name,
	})
	if err != nil {
		logger.Warn("organisation create failed", "name", name, "error", err.Error())
		return 0
	}
	obj, ok := result.First()
	if !ok {
		logger.Warn("organisation create returned no id", "name", name)
		return 0
	}

	logger.Info("organisation created", "name", name, "organisation_id", strconv.FormatInt(obj.ID, 10))
	r.remember(ctx, CachedOrg{WorkbooksID: obj.ID, Name: name, ObjectRef: obj.ObjectRef})
	return obj.ID
}

// remember upserts a freshly-resolved organisation into the cache table and
// refreshes the snapshot. Failures are logged only.
func (r *Resolver) remember(ctx context.Context, org CachedOrg) {
	org.SyncedAt = time.Now().UTC()
	if err := r.repo.Upsert(ctx, org); err != nil {
		logger.Warn("organisation cache upsert failed", "name", org.Name, "error", err.Error())
		return
	}
	r.RefreshSnapshot(ctx)
}

// ResyncAll performs the full paginated re-sync of every remote organisation
// into the local cache, replacing the table wholesale and regenerating the
// snapshot. Run daily by the resync worker and on demand via the API.
func (r *Resolver) ResyncAll(ctx context.Context) (int, error) {
	var all []CachedOrg
	now := time.Now().UTC()

	for start := 0; ; start += r.pageSize {
		page, err := r.crm.Search(ctx, workbooks.ResourceOrganisations, nil, start, r.pageSize)
		if err != nil {
			return 0, err
		}
		for _, rec := range page {
			all = append(all, CachedOrg{
				WorkbooksID: rec.ID,
				Name:        rec.Name,
				ObjectRef:   rec.ObjectRef,
				SyncedAt:    now,
			})
		}
		if len(page) < r.pageSize {
			break
		}
	}

	if err := r.repo.ReplaceAll(ctx, all); err != nil {
		return 0, err
	}
	r.RefreshSnapshot(ctx)
	return len(all), nil
}

// RefreshSnapshot regenerates the denormalized snapshot from the cache table
// and pushes it to the snapshot writer and the Redis cache. Best effort.
func (r *Resolver) RefreshSnapshot(ctx context.Context) {
	orgs, err := r.repo.All(ctx)
	if err != nil {
		logger.Warn("snapshot refresh: cache read failed", "error", err.Error())
		return
	}

	snap := Snapshot{GeneratedAt: time.Now().UTC(), Organisations: orgs}

	if r.cache != nil {
		if err := r.cache.Set(ctx, snap); err != nil {
			logger.Warn("snapshot refresh: redis set failed", "error", err.Error())
		}
	}
	if r.writer != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			logger.Warn("snapshot refresh: marshal failed", "error", err.Error())
			return
		}
		if err := r.writer.Save(ctx, data); err != nil {
			logger.Warn("snapshot refresh: save failed", "error", err.Error())
		}
	}
}

// CurrentSnapshot returns the snapshot, served from Redis when warm,
// otherwise rebuilt from the cache table (and re-cached).
func (r *Resolver) CurrentSnapshot(ctx context.Context) (Snapshot, error) {
	if r.cache != nil {
		if snap, ok := r.cache.Get(ctx); ok {
			return snap, nil
		}
	}

	orgs, err := r.repo.All(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{GeneratedAt: time.Now().UTC(), Organisations: orgs}
	if r.cache != nil {
		if err := r.cache.Set(ctx, snap); err != nil {
			logger.Warn("snapshot cache set failed", "error", err.Error())
		}
	}
	return snap, nil
}
