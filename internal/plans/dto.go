package plans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

type PlanDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Currency    string           `json:"currency"`
	Plan        enums.PlanTier   `json:"plan"`
	Status      enums.PlanStatus `json:"status"`
	AutoRenew   bool             `json:"auto_renew"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreatePlanInput carries a new plan. Status defaults to ACTIVE and AutoRenew
// to false.
type CreatePlanInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Plan        enums.PlanTier
	Status      *enums.PlanStatus
	AutoRenew   *bool
}

type UpdatePlanInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Currency    *string
	Plan        *enums.PlanTier
	Status      *enums.PlanStatus
	AutoRenew   *bool
}

func FromModel(m *models.SubscriptionPlan) *PlanDTO {
	if m == nil {
		return nil
	}
	return &PlanDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Currency:    m.Currency,
		Plan:        m.Plan,
		Status:      m.Status,
		AutoRenew:   m.AutoRenew,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(rows []models.SubscriptionPlan) []PlanDTO {
	out := make([]PlanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
