package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// Store is a vendor storefront. One per owner.
type Store struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID      uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_stores_owner_id"`
	Name         string            `gorm:"column:name;not null"`
	Slug         string            `gorm:"column:slug;not null;uniqueIndex:idx_stores_slug"`
	Description  *string           `gorm:"column:description"`
	Logo         *string           `gorm:"column:logo"`
	Status       enums.StoreStatus `gorm:"column:status;not null"`
	ContactEmail string            `gorm:"column:contact_email;not null"`
	ContactPhone *string           `gorm:"column:contact_phone"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
