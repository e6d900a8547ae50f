package stores

import (
	"context"

	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.first(ctx, "slug = ?", slug)
}

// FindByOwner returns the single store owned by ownerID.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where(query, args...).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// OwnerHasStore reports whether ownerID already owns a store.
func (r *Repository) OwnerHasStore(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	return r.exists(ctx, "owner_id = ?", ownerID)
}

// SlugExists reports whether slug is taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, "slug = ?", slug)
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Store{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns stores matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter StoreFilter) ([]models.Store, error) {
	var rows []models.Store
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Scopes(filter.Scope).
		Order("stores.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the mutable store columns.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).
		Model(store).
		Select("name", "description", "logo", "status", "contact_email", "contact_phone", "updated_at").
		Updates(store).Error
}

// Delete hard-deletes a store. Products and images cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
