package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage stores ordered images for products.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	Position  int       `gorm:"column:position;not null;default:0"`
	IsPrimary bool      `gorm:"column:is_primary;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
