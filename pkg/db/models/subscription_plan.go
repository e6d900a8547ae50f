package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// SubscriptionPlan is a named, priced template users subscribe to.
type SubscriptionPlan struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null;uniqueIndex:idx_subscription_plans_name"`
	Description string           `gorm:"column:description;not null"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	Currency    string           `gorm:"column:currency;not null"`
	Plan        enums.PlanTier   `gorm:"column:plan;not null"`
	Status      enums.PlanStatus `gorm:"column:status;not null"`
	AutoRenew   bool             `gorm:"column:auto_renew;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
