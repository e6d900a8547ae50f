package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-backend/internal/plans"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

type SubscriptionDTO struct {
	ID                 uuid.UUID                `json:"id"`
	UserID             uuid.UUID                `json:"user_id"`
	SubscriptionPlanID uuid.UUID                `json:"subscription_plan_id"`
	StartDate          time.Time                `json:"start_date"`
	EndDate            time.Time                `json:"end_date"`
	Status             enums.SubscriptionStatus `json:"status"`
	AutoRenew          bool                     `json:"auto_renew"`
	PaymentID          *string                  `json:"payment_id,omitempty"`
	Plan               *plans.PlanDTO           `json:"plan,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// SubscribeInput starts a subscription for UserID on PlanID.
type SubscribeInput struct {
	UserID    uuid.UUID
	PlanID    uuid.UUID
	AutoRenew *bool
	PaymentID *string
}

// UpdateSubscriptionInput is the admin override. Fields are applied as given
// with no cross-field checks.
type UpdateSubscriptionInput struct {
	Status    *enums.SubscriptionStatus
	AutoRenew *bool
	EndDate   *time.Time
}

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

func FromModel(m *models.UserSubscription) *SubscriptionDTO {
	if m == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:                 m.ID,
		UserID:             m.UserID,
		SubscriptionPlanID: m.SubscriptionPlanID,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		Status:             m.Status,
		AutoRenew:          m.AutoRenew,
		PaymentID:          m.PaymentID,
		Plan:               plans.FromModel(m.Plan),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func fromModels(rows []models.UserSubscription) []SubscriptionDTO {
	out := make([]SubscriptionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
