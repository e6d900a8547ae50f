package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/api/responses"
	"github.com/angelmondragon/marketplace-backend/api/validators"
	"github.com/angelmondragon/marketplace-backend/internal/products"
	"github.com/angelmondragon/marketplace-backend/internal/search"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
)

type productCreateRequest struct {
	Name           string           `json:"name" validate:"required,min=1,max=255"`
	Slug           *string          `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price" validate:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU            *string          `json:"sku,omitempty" validate:"omitempty,max=100"`
	Quantity       *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	IsFeatured     *bool            `json:"is_featured,omitempty"`
	CategoryIDs    []uuid.UUID      `json:"category_ids,omitempty"`
}

// toInput expects a validated request; Price is required there.
func (r productCreateRequest) toInput() products.CreateProductInput {
	var price decimal.Decimal
	if r.Price != nil {
		price = *r.Price
	}
	return products.CreateProductInput{
		Name:           validators.SanitizeString(r.Name, 255),
		Slug:           r.Slug,
		Description:    r.Description,
		Price:          price,
		CompareAtPrice: r.CompareAtPrice,
		SKU:            r.SKU,
		Quantity:       r.Quantity,
		IsFeatured:     r.IsFeatured,
		CategoryIDs:    r.CategoryIDs,
	}
}

type productUpdateRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Slug           *string          `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU            *string          `json:"sku,omitempty" validate:"omitempty,max=100"`
	Quantity       *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	IsFeatured     *bool            `json:"is_featured,omitempty"`
	CategoryIDs    *[]uuid.UUID     `json:"category_ids,omitempty"`
}

func (r productUpdateRequest) toInput() products.UpdateProductInput {
	return products.UpdateProductInput{
		Name:           r.Name,
		Slug:           r.Slug,
		Description:    r.Description,
		Price:          r.Price,
		CompareAtPrice: r.CompareAtPrice,
		SKU:            r.SKU,
		Quantity:       r.Quantity,
		IsFeatured:     r.IsFeatured,
		CategoryIDs:    r.CategoryIDs,
	}
}

type productImageRequest struct {
	URL       string  `json:"url" validate:"required,url"`
	AltText   *string `json:"alt_text,omitempty" validate:"omitempty,max=255"`
	Position  *int    `json:"position,omitempty" validate:"omitempty,min=0"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

// ProductGet returns a published product of an active store.
func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetPublished(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductsByStore(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublishedByStoreSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductsByCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListPublishedByCategorySlug(r.Context(), chi.URLParam(r, "slug"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductSearch runs the catalog composer; scope decides whether only
// publicly visible products are eligible.
func ProductSearch(svc search.Service, scope search.Scope, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := productQueryFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SearchProducts(r.Context(), q, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func productQueryFromRequest(r *http.Request) (search.ProductQuery, error) {
	page, err := pageParams(r)
	if err != nil {
		return search.ProductQuery{}, err
	}
	categoryID, err := validators.ParseQueryUUID(r, "category_id")
	if err != nil {
		return search.ProductQuery{}, err
	}
	storeID, err := validators.ParseQueryUUID(r, "store_id")
	if err != nil {
		return search.ProductQuery{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return search.ProductQuery{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return search.ProductQuery{}, err
	}
	return search.ProductQuery{
		Q:          validators.SanitizeString(r.URL.Query().Get("q"), 200),
		CategoryID: categoryID,
		StoreID:    storeID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       r.URL.Query().Get("sort"),
		Page:       page.Page,
		Limit:      page.Limit,
	}, nil
}

func VendorCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func VendorListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListByStore(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func VendorGetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		return svc.GetOwned(r.Context(), userID, productID)
	})
}

func VendorUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), userID, productID, payload.toInput())
	})
}

func VendorPublishProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		return svc.Publish(r.Context(), userID, productID)
	})
}

func VendorUnpublishProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		return svc.Unpublish(r.Context(), userID, productID)
	})
}

func VendorAddProductImage(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		var payload productImageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddImage(r.Context(), userID, productID, products.AddImageInput{
			URL:       payload.URL,
			AltText:   payload.AltText,
			Position:  payload.Position,
			IsPrimary: payload.IsPrimary,
		})
	})
}

func VendorRemoveProductImage(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorProductAction(logg, func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error) {
		imageID, err := validators.ParseUUIDParam(r, "imageId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveImage(r.Context(), userID, productID, imageID)
	})
}

func VendorDeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDelete(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// vendorProductAction resolves the caller and product id before running fn.
func vendorProductAction(logg *logger.Logger, fn func(r *http.Request, userID, productID uuid.UUID) (*products.ProductDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := fn(r, userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListAll(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return adminProductAction(logg, svc.GetByID)
}

func AdminHideProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return adminProductAction(logg, svc.Hide)
}

func AdminUnhideProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return adminProductAction(logg, svc.Unhide)
}

func adminProductAction(logg *logger.Logger, fn func(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := fn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
