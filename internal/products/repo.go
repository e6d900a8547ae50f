package products

import (
	"context"
	"time"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles product, image and category-link persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) products(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{}).Scopes(NotDeleted)
}

// Create inserts the product row and its category links.
func (r *Repository) Create(ctx context.Context, product *models.Product, categoryIDs []uuid.UUID) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return err
	}
	return r.linkCategories(ctx, product.ID, categoryIDs)
}

// FindByID loads a live product with images and categories.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.products(ctx).
		Scopes(WithRelations).
		Where("products.id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate loads a live product and, on Postgres, row-locks it for
// the rest of the transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	q := r.products(ctx)
	if r.db.Dialector.Name() == db.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := q.Where("products.id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindPublishedByID loads a product only when it is publicly visible.
func (r *Repository) FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.products(ctx).
		Scopes(PubliclyVisible, WithRelations).
		Where("products.id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugExists reports whether another live or deleted product of the store
// uses slug. excludeID skips the product being renamed.
func (r *Repository) SlugExists(ctx context.Context, storeID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("store_id = ? AND slug = ?", storeID, slug)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByStore returns every live product of a store, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	if err := r.products(ctx).
		Scopes(WithRelations).
		Where("products.store_id = ?", storeID).
		Order("products.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPublishedByStoreSlug returns the public catalog of one store.
func (r *Repository) ListPublishedByStoreSlug(ctx context.Context, storeSlug string) ([]models.Product, error) {
	var rows []models.Product
	if err := r.products(ctx).
		Scopes(PubliclyVisible, WithRelations).
		Where("stores.slug = ?", storeSlug).
		Order("products.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPublishedByCategory pages the public products linked to a category.
func (r *Repository) ListPublishedByCategory(ctx context.Context, categoryID uuid.UUID, page pagination.Params) ([]models.Product, int64, error) {
	return r.paged(ctx, page, PubliclyVisible, InCategory(categoryID))
}

// ListAll pages every live product regardless of status.
func (r *Repository) ListAll(ctx context.Context, page pagination.Params) ([]models.Product, int64, error) {
	return r.paged(ctx, page)
}

func (r *Repository) paged(ctx context.Context, page pagination.Params, scopes ...func(*gorm.DB) *gorm.DB) ([]models.Product, int64, error) {
	base := r.products(ctx).Scopes(scopes...).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := base.
		Scopes(WithRelations).
		Order("products.created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update writes every mutable product column.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("name", "slug", "description", "price", "compare_at_price", "sku",
			"status", "quantity", "is_featured", "published_at", "updated_at").
		Updates(product).Error
}

// ReplaceCategories swaps the category set of a product.
func (r *Repository) ReplaceCategories(ctx context.Context, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductCategory{}).Error; err != nil {
		return err
	}
	return r.linkCategories(ctx, productID, categoryIDs)
}

func (r *Repository) linkCategories(ctx context.Context, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]models.ProductCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, models.ProductCategory{ProductID: productID, CategoryID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links).Error
}

// SoftDelete stamps deleted_at on a live product.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{"deleted_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *Repository) CountImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(image).Error
}

// DeleteImage removes imageID only if it belongs to productID.
func (r *Repository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&models.ProductImage{})
	return res.RowsAffected, res.Error
}
