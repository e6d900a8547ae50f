package products

import (
	"context"
	"testing"

	"github.com/angelmondragon/marketplace-backend/internal/categories"
	"github.com/angelmondragon/marketplace-backend/internal/identity"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	client *db.Client
	svc    Service
	vendor models.User
	store  models.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)

	dir, err := identity.NewDirectory(identity.NewRepository(client.DB()))
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	storeSvc, err := stores.NewService(stores.NewRepository(client.DB()), dir, nil)
	if err != nil {
		t.Fatalf("stores.NewService: %v", err)
	}
	categorySvc, err := categories.NewService(categories.NewRepository(client.DB()), nil, 0, nil)
	if err != nil {
		t.Fatalf("categories.NewService: %v", err)
	}
	svc, err := NewService(NewRepository(client.DB()), client, storeSvc, categorySvc, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	vendor := dbtest.SeedUser(t, client.DB(), enums.UserRoleVendor)
	store := dbtest.SeedStore(t, client.DB(), vendor.ID, "Green Leaf", "green-leaf", enums.StoreStatusActive)
	return fixture{client: client, svc: svc, vendor: vendor, store: store}
}

func (f fixture) conn() *gorm.DB { return f.client.DB() }

func strPtr(v string) *string { return &v }

func (f fixture) createDraft(t *testing.T, name string) *ProductDTO {
	t.Helper()
	got, err := f.svc.Create(context.Background(), f.vendor.ID, CreateProductInput{
		Name:  name,
		Price: decimal.RequireFromString("19.99"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return got
}

func TestCreateStartsAsDraftWithDerivedSlug(t *testing.T) {
	f := newFixture(t)
	cat := dbtest.SeedCategory(t, f.conn(), "Flower", "flower", true)

	got, err := f.svc.Create(context.Background(), f.vendor.ID, CreateProductInput{
		Name:        "Blue Dream 3.5g",
		Price:       decimal.RequireFromString("35.00"),
		CategoryIDs: []uuid.UUID{cat.ID, uuid.New()},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Status != enums.ProductStatusDraft {
		t.Fatalf("expected draft, got %s", got.Status)
	}
	if got.Slug != "blue-dream-35g" {
		t.Fatalf("unexpected slug %q", got.Slug)
	}
	if got.StoreID != f.store.ID {
		t.Fatalf("expected store %s, got %s", f.store.ID, got.StoreID)
	}
	if len(got.Categories) != 1 || got.Categories[0].ID != cat.ID {
		t.Fatalf("expected only the known category linked, got %+v", got.Categories)
	}
}

func TestCreateWithoutStoreIsNotFound(t *testing.T) {
	f := newFixture(t)
	stranger := dbtest.SeedUser(t, f.conn(), enums.UserRoleVendor)

	_, err := f.svc.Create(context.Background(), stranger.ID, CreateProductInput{Name: "Orphan", Price: decimal.NewFromInt(1)})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateDuplicateSlugInStoreConflicts(t *testing.T) {
	f := newFixture(t)
	f.createDraft(t, "Gummies")

	_, err := f.svc.Create(context.Background(), f.vendor.ID, CreateProductInput{
		Name:  "Other Gummies",
		Slug:  strPtr("gummies"),
		Price: decimal.NewFromInt(5),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateSameSlugInAnotherStoreSucceeds(t *testing.T) {
	f := newFixture(t)
	f.createDraft(t, "Gummies")

	other := dbtest.SeedUser(t, f.conn(), enums.UserRoleVendor)
	dbtest.SeedStore(t, f.conn(), other.ID, "Other", "other", enums.StoreStatusActive)
	if _, err := f.svc.Create(context.Background(), other.ID, CreateProductInput{Name: "Gummies", Price: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("expected slug reuse across stores, got %v", err)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.vendor.ID, CreateProductInput{Name: "Bad", Price: decimal.NewFromInt(-1)})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublishRequiresImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createDraft(t, "Vape Pen")

	_, err := f.svc.Publish(ctx, f.vendor.ID, product.ID)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBadRequest {
		t.Fatalf("expected bad request without images, got %v", err)
	}

	if _, err := f.svc.AddImage(ctx, f.vendor.ID, product.ID, AddImageInput{URL: "https://cdn.test/a.png"}); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	got, err := f.svc.Publish(ctx, f.vendor.ID, product.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.Status != enums.ProductStatusPublished || got.PublishedAt == nil {
		t.Fatalf("expected published with timestamp, got %s %v", got.Status, got.PublishedAt)
	}

	got, err = f.svc.Unpublish(ctx, f.vendor.ID, product.ID)
	if err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if got.Status != enums.ProductStatusDraft || got.PublishedAt != nil {
		t.Fatalf("expected draft without timestamp, got %s %v", got.Status, got.PublishedAt)
	}
}

func TestAddImageDefaultsAndCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createDraft(t, "Tincture")

	var got *ProductDTO
	var err error
	for i := 0; i < MaxImages; i++ {
		got, err = f.svc.AddImage(ctx, f.vendor.ID, product.ID, AddImageInput{URL: "https://cdn.test/img.png"})
		if err != nil {
			t.Fatalf("AddImage %d: %v", i, err)
		}
	}
	if len(got.Images) != MaxImages {
		t.Fatalf("expected %d images, got %d", MaxImages, len(got.Images))
	}
	for i, img := range got.Images {
		if img.Position != i {
			t.Fatalf("image %d has position %d", i, img.Position)
		}
		if img.IsPrimary != (i == 0) {
			t.Fatalf("image %d primary=%v", i, img.IsPrimary)
		}
	}

	_, err = f.svc.AddImage(ctx, f.vendor.ID, product.ID, AddImageInput{URL: "https://cdn.test/six.png"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBadRequest {
		t.Fatalf("expected bad request past the cap, got %v", err)
	}
}

func TestRemoveImageDoesNotPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createDraft(t, "Edible")

	withFirst, err := f.svc.AddImage(ctx, f.vendor.ID, product.ID, AddImageInput{URL: "https://cdn.test/1.png"})
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if _, err := f.svc.AddImage(ctx, f.vendor.ID, product.ID, AddImageInput{URL: "https://cdn.test/2.png"}); err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	got, err := f.svc.RemoveImage(ctx, f.vendor.ID, product.ID, withFirst.Images[0].ID)
	if err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	if len(got.Images) != 1 || got.Images[0].IsPrimary {
		t.Fatalf("expected one non-primary image left, got %+v", got.Images)
	}

	_, err = f.svc.RemoveImage(ctx, f.vendor.ID, product.ID, uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown image, got %v", err)
	}
}

func TestOtherVendorSeesNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createDraft(t, "Private")

	other := dbtest.SeedUser(t, f.conn(), enums.UserRoleVendor)
	dbtest.SeedStore(t, f.conn(), other.ID, "Rival", "rival", enums.StoreStatusActive)

	if _, err := f.svc.GetOwned(ctx, other.ID, product.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("GetOwned: expected not found, got %v", err)
	}
	if _, err := f.svc.Update(ctx, other.ID, product.ID, UpdateProductInput{Name: strPtr("Mine")}); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("Update: expected not found, got %v", err)
	}
	if err := f.svc.SoftDelete(ctx, other.ID, product.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("SoftDelete: expected not found, got %v", err)
	}
}

func TestUpdateReplacesCategoriesAndSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flower := dbtest.SeedCategory(t, f.conn(), "Flower", "flower", true)
	edible := dbtest.SeedCategory(t, f.conn(), "Edible", "edible", true)

	created, err := f.svc.Create(ctx, f.vendor.ID, CreateProductInput{
		Name:        "Mixed",
		Price:       decimal.NewFromInt(10),
		CategoryIDs: []uuid.UUID{flower.ID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids := []uuid.UUID{edible.ID}
	price := decimal.RequireFromString("12.50")
	got, err := f.svc.Update(ctx, f.vendor.ID, created.ID, UpdateProductInput{
		Slug:        strPtr("mixed-v2"),
		Price:       &price,
		CategoryIDs: &ids,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != "mixed-v2" {
		t.Fatalf("unexpected slug %q", got.Slug)
	}
	if !got.Price.Equal(price) {
		t.Fatalf("unexpected price %s", got.Price)
	}
	if len(got.Categories) != 1 || got.Categories[0].ID != edible.ID {
		t.Fatalf("expected categories replaced, got %+v", got.Categories)
	}
}

func TestUpdateSlugCollisionConflicts(t *testing.T) {
	f := newFixture(t)
	f.createDraft(t, "Alpha")
	beta := f.createDraft(t, "Beta")

	_, err := f.svc.Update(context.Background(), f.vendor.ID, beta.ID, UpdateProductInput{Slug: strPtr("alpha")})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSoftDeleteHidesProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createDraft(t, "Doomed")

	if err := f.svc.SoftDelete(ctx, f.vendor.ID, product.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := f.svc.GetByID(ctx, product.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	list, err := f.svc.ListByStore(ctx, f.vendor.ID)
	if err != nil {
		t.Fatalf("ListByStore: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store listing, got %d", len(list))
	}
}

func TestHideAndUnhide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := dbtest.SeedProduct(t, f.conn(), dbtest.ProductSeed{StoreID: f.store.ID, Name: "Live", Status: enums.ProductStatusPublished})

	hidden, err := f.svc.Hide(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Hide: %v", err)
	}
	if hidden.Status != enums.ProductStatusHidden {
		t.Fatalf("expected hidden, got %s", hidden.Status)
	}
	if _, err := f.svc.GetPublished(ctx, seeded.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected hidden product off the public surface, got %v", err)
	}
	if _, err := f.svc.Publish(ctx, f.vendor.ID, seeded.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeBadRequest {
		t.Fatalf("expected owner publish of hidden product rejected, got %v", err)
	}

	restored, err := f.svc.Unhide(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Unhide: %v", err)
	}
	if restored.Status != enums.ProductStatusDraft {
		t.Fatalf("expected draft after unhide, got %s", restored.Status)
	}
	if _, err := f.svc.Unhide(ctx, seeded.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeBadRequest {
		t.Fatalf("expected bad request unhiding a draft, got %v", err)
	}
}

func TestPublicListingsRequireActiveStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flower := dbtest.SeedCategory(t, f.conn(), "Flower", "flower", true)
	dbtest.SeedProduct(t, f.conn(), dbtest.ProductSeed{StoreID: f.store.ID, Name: "Shown", Status: enums.ProductStatusPublished, Categories: []uuid.UUID{flower.ID}})
	dbtest.SeedProduct(t, f.conn(), dbtest.ProductSeed{StoreID: f.store.ID, Name: "Draft", Categories: []uuid.UUID{flower.ID}})

	other := dbtest.SeedUser(t, f.conn(), enums.UserRoleVendor)
	suspended := dbtest.SeedStore(t, f.conn(), other.ID, "Paused", "paused", enums.StoreStatusSuspended)
	dbtest.SeedProduct(t, f.conn(), dbtest.ProductSeed{StoreID: suspended.ID, Name: "Paused Item", Status: enums.ProductStatusPublished, Categories: []uuid.UUID{flower.ID}})

	byStore, err := f.svc.ListPublishedByStoreSlug(ctx, "green-leaf")
	if err != nil {
		t.Fatalf("ListPublishedByStoreSlug: %v", err)
	}
	if len(byStore) != 1 || byStore[0].Name != "Shown" {
		t.Fatalf("unexpected store catalog %+v", byStore)
	}

	paused, err := f.svc.ListPublishedByStoreSlug(ctx, "paused")
	if err != nil {
		t.Fatalf("ListPublishedByStoreSlug: %v", err)
	}
	if len(paused) != 0 {
		t.Fatalf("expected suspended store catalog empty, got %d", len(paused))
	}

	page, err := f.svc.ListPublishedByCategorySlug(ctx, "flower", pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListPublishedByCategorySlug: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Name != "Shown" {
		t.Fatalf("unexpected category page %+v", page)
	}

	if _, err := f.svc.ListPublishedByCategorySlug(ctx, "missing", pagination.Params{}); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected unknown category not found, got %v", err)
	}
}

func TestListAllPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		dbtest.SeedProduct(t, f.conn(), dbtest.ProductSeed{StoreID: f.store.ID, Name: "Item"})
	}

	page, err := f.svc.ListAll(context.Background(), pagination.Params{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 || page.TotalPages != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}
