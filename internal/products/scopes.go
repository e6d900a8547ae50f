package products

import (
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotDeleted hides tombstoned products. Every product read goes through it.
func NotDeleted(q *gorm.DB) *gorm.DB {
	return q.Where("products.deleted_at IS NULL")
}

// PubliclyVisible restricts products to published rows of active stores.
func PubliclyVisible(q *gorm.DB) *gorm.DB {
	return q.Joins("JOIN stores ON stores.id = products.store_id").
		Where("products.status = ?", enums.ProductStatusPublished).
		Where("stores.status = ?", enums.StoreStatusActive)
}

// InCategory keeps products linked to categoryID.
func InCategory(categoryID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = products.id AND pc.category_id = ?)",
			categoryID,
		)
	}
}

// WithRelations preloads images in display order and categories.
func WithRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC, product_images.created_at ASC")
		}).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name ASC")
		})
}
