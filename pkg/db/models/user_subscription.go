package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// UserSubscription is one user's instance of a plan. At most one ACTIVE row
// exists per user, enforced by a partial unique index.
type UserSubscription struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	SubscriptionPlanID uuid.UUID                `gorm:"column:subscription_plan_id;type:uuid;not null;index"`
	StartDate          time.Time                `gorm:"column:start_date;not null"`
	EndDate            time.Time                `gorm:"column:end_date;not null"`
	Status             enums.SubscriptionStatus `gorm:"column:status;not null"`
	AutoRenew          bool                     `gorm:"column:auto_renew;not null"`
	PaymentID          *string                  `gorm:"column:payment_id"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Plan *SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID"`
}
