package categories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/google/uuid"
)

func newTestService(t *testing.T, cache *memoryCache) (Service, *Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	var svc Service
	var err error
	if cache != nil {
		svc, err = NewService(repo, cache, time.Minute, nil)
	} else {
		svc, err = NewService(repo, nil, 0, nil)
	}
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func strPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func TestCreateDerivesSlugAndDefaultsActive(t *testing.T) {
	svc, _ := newTestService(t, nil)

	got, err := svc.Create(context.Background(), CreateCategoryInput{Name: "  Pre Rolls & Joints "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Slug != "pre-rolls-joints" {
		t.Fatalf("unexpected slug %q", got.Slug)
	}
	if !got.IsActive {
		t.Fatal("expected new category to be active")
	}
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Edibles"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, CreateCategoryInput{Name: "Other", Slug: strPtr("edibles")})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsUnsluggableName(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "!!!"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateChecksSlugOnlyWhenChanged(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, _ := svc.Create(ctx, CreateCategoryInput{Name: "Flower"})
	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Vapes"}); err != nil {
		t.Fatalf("create vapes: %v", err)
	}

	// same slug is not a collision with itself
	updated, err := svc.Update(ctx, first.ID, UpdateCategoryInput{Slug: strPtr("flower"), Name: strPtr("Flower Buds")})
	if err != nil {
		t.Fatalf("Update same slug: %v", err)
	}
	if updated.Name != "Flower Buds" || updated.Slug != "flower" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	_, err = svc.Update(ctx, first.ID, UpdateCategoryInput{Slug: strPtr("vapes")})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	deactivated, err := svc.Update(ctx, first.ID, UpdateCategoryInput{IsActive: boolPtr(false)})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatal("expected inactive category")
	}
	reloaded, err := svc.GetBySlug(ctx, "flower")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("inactive flag was not persisted")
	}
}

func TestListActiveFiltersAndOrdersByName(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, in := range []CreateCategoryInput{
		{Name: "Tinctures"},
		{Name: "Accessories"},
		{Name: "Archived", IsActive: boolPtr(false)},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Name, err)
		}
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 || active[0].Name != "Accessories" || active[1].Name != "Tinctures" {
		t.Fatalf("unexpected active list %+v", active)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(all))
	}
}

func TestGetAndRemoveMissing(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, uuid.New()); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Remove(ctx, uuid.New()); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	created, _ := svc.Create(ctx, CreateCategoryInput{Name: "Topicals"})
	if err := svc.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected removed category to be gone, got %v", err)
	}
}

func TestResolveIDsDropsUnknown(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateCategoryInput{Name: "Concentrates"})
	b, _ := svc.Create(ctx, CreateCategoryInput{Name: "Beverages"})

	rows, err := svc.ResolveIDs(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID, a.ID})
	if err != nil {
		t.Fatalf("ResolveIDs: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 resolved categories, got %d", len(rows))
	}

	empty, err := svc.ResolveIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty resolution, got %v %v", empty, err)
	}
}

func TestListActiveUsesCacheAndInvalidatesOnMutation(t *testing.T) {
	cache := newMemoryCache()
	svc, _ := newTestService(t, cache)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Seeds"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := svc.ListActive(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("ListActive: %v %v", first, err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache fill, sets=%d", cache.sets)
	}

	if _, err := svc.ListActive(ctx); err != nil {
		t.Fatalf("second ListActive: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected cache hit, hits=%d", cache.hits)
	}

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Clones"}); err != nil {
		t.Fatalf("create clones: %v", err)
	}
	after, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive after create: %v", err)
	}
	if len(after) != 2 {
		t.Fatalf("expected invalidated cache to show 2 categories, got %d", len(after))
	}
}

type memoryCache struct {
	data map[string][]byte
	hits int
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	key := "test"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
