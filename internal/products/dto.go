package products

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
)

// ProductDTO is the API view of a product with its images and categories.
type ProductDTO struct {
	ID             uuid.UUID           `json:"id"`
	StoreID        uuid.UUID           `json:"store_id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    *string             `json:"description,omitempty"`
	Price          *decimal.Decimal    `json:"price"`
	CompareAtPrice *decimal.Decimal    `json:"compare_at_price,omitempty"`
	SKU            *string             `json:"sku,omitempty"`
	Status         enums.ProductStatus `json:"status"`
	Quantity       int                 `json:"quantity"`
	IsFeatured     bool                `json:"is_featured"`
	PublishedAt    *time.Time          `json:"published_at,omitempty"`
	Images         []ImageDTO          `json:"images"`
	Categories     []CategoryRef       `json:"categories"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   *string   `json:"alt_text,omitempty"`
	Position  int       `json:"position"`
	IsPrimary bool      `json:"is_primary"`
}

type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// CreateProductInput carries creation data. Status is not accepted; products
// start as drafts.
type CreateProductInput struct {
	Name           string
	Slug           *string
	Description    *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	SKU            *string
	Quantity       *int
	IsFeatured     *bool
	CategoryIDs    []uuid.UUID
}

// UpdateProductInput whitelists the fields an owner may change. A non-nil
// CategoryIDs replaces the whole category set.
type UpdateProductInput struct {
	Name           *string
	Slug           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	SKU            *string
	Quantity       *int
	IsFeatured     *bool
	CategoryIDs    *[]uuid.UUID
}

type AddImageInput struct {
	URL       string
	AltText   *string
	Position  *int
	IsPrimary *bool
}

// FromModel maps a product and its preloaded relations into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             m.ID,
		StoreID:        m.StoreID,
		Name:           m.Name,
		Slug:           m.Slug,
		Description:    m.Description,
		Price:          m.Price,
		CompareAtPrice: m.CompareAtPrice,
		SKU:            m.SKU,
		Status:         m.Status,
		Quantity:       m.Quantity,
		IsFeatured:     m.IsFeatured,
		PublishedAt:    m.PublishedAt,
		Images:         make([]ImageDTO, 0, len(m.Images)),
		Categories:     make([]CategoryRef, 0, len(m.Categories)),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, img := range m.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			Position:  img.Position,
			IsPrimary: img.IsPrimary,
		})
	}
	sort.SliceStable(dto.Images, func(i, j int) bool { return dto.Images[i].Position < dto.Images[j].Position })
	for _, c := range m.Categories {
		dto.Categories = append(dto.Categories, CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return dto
}

// FromModels maps a slice of products.
func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
