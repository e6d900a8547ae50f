package models

import "github.com/google/uuid"

// ProductCategory is the product_categories join row.
type ProductCategory struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}

func (ProductCategory) TableName() string { return "product_categories" }
