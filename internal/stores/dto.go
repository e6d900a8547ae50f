package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// StoreDTO exposes store data in API responses.
type StoreDTO struct {
	ID           uuid.UUID         `json:"id"`
	OwnerID      uuid.UUID         `json:"owner_id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  *string           `json:"description,omitempty"`
	Logo         *string           `json:"logo,omitempty"`
	Status       enums.StoreStatus `json:"status"`
	ContactEmail string            `json:"contact_email"`
	ContactPhone *string           `json:"contact_phone,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RegisterStoreInput holds registration data. Status is never accepted here;
// new stores always wait for approval.
type RegisterStoreInput struct {
	Name         string
	Slug         *string
	Description  *string
	Logo         *string
	ContactEmail string
	ContactPhone *string
}

// UpdateStoreInput is the admin whitelist.
type UpdateStoreInput struct {
	Name         *string
	Description  *string
	Logo         *string
	Status       *enums.StoreStatus
	ContactEmail *string
	ContactPhone *string
}

// UpdateMyStoreInput is the owner whitelist. Owners cannot change status.
type UpdateMyStoreInput struct {
	Name         *string
	Description  *string
	Logo         *string
	ContactEmail *string
	ContactPhone *string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Name:         m.Name,
		Slug:         m.Slug,
		Description:  m.Description,
		Logo:         m.Logo,
		Status:       m.Status,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromModels maps a slice of stores.
func FromModels(rows []models.Store) []StoreDTO {
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
