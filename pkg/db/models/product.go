package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// Product is an item listed by a store. DeletedAt is the soft-delete tombstone.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID        uuid.UUID           `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_products_store_slug,priority:1"`
	Name           string              `gorm:"column:name;not null"`
	Slug           string              `gorm:"column:slug;not null;uniqueIndex:idx_products_store_slug,priority:2"`
	Description    *string             `gorm:"column:description"`
	Price          *decimal.Decimal    `gorm:"column:price;type:numeric(10,2);not null"`
	CompareAtPrice *decimal.Decimal    `gorm:"column:compare_at_price;type:numeric(10,2)"`
	SKU            *string             `gorm:"column:sku"`
	Status         enums.ProductStatus `gorm:"column:status;not null"`
	Quantity       int                 `gorm:"column:quantity;not null;default:0"`
	IsFeatured     bool                `gorm:"column:is_featured;not null"`
	PublishedAt    *time.Time          `gorm:"column:published_at"`
	DeletedAt      *time.Time          `gorm:"column:deleted_at;index"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Images     []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Categories []Category     `gorm:"many2many:product_categories;constraint:OnDelete:CASCADE"`
}
