package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-backend/internal/categories"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/marketplace-backend/pkg/slug"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// MaxImages caps how many images a product may carry.
	MaxImages = 5

	slugConstraint = "idx_products_store_slug"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeResolver interface {
	ResolveOwnedStore(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

type categoryResolver interface {
	ResolveIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*categories.CategoryDTO, error)
}

// Service exposes the product catalog.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error)
	ListByStore(ctx context.Context, ownerID uuid.UUID) ([]ProductDTO, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
	Publish(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error)
	Unpublish(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error)
	AddImage(ctx context.Context, ownerID, id uuid.UUID, input AddImageInput) (*ProductDTO, error)
	RemoveImage(ctx context.Context, ownerID, id, imageID uuid.UUID) (*ProductDTO, error)
	Hide(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Unhide(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListAll(ctx context.Context, page pagination.Params) (pagination.Page[ProductDTO], error)
	ListPublishedByStoreSlug(ctx context.Context, storeSlug string) ([]ProductDTO, error)
	ListPublishedByCategorySlug(ctx context.Context, categorySlug string, page pagination.Params) (pagination.Page[ProductDTO], error)
}

type service struct {
	repo       *Repository
	tx         txRunner
	stores     storeResolver
	categories categoryResolver
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, stores storeResolver, categories categoryResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store resolver required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category resolver required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       repo,
		tx:         tx,
		stores:     stores,
		categories: categories,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePrices(&input.Price, input.CompareAtPrice); err != nil {
		return nil, err
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	store, err := s.stores.ResolveOwnedStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	productSlug := slug.Make(name)
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		productSlug = strings.TrimSpace(*input.Slug)
	}
	if productSlug == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "name %q does not produce a usable slug", name)
	}

	taken, err := s.repo.SlugExists(ctx, store.ID, productSlug, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
	}
	if taken {
		return nil, slugConflict(productSlug)
	}

	categoryIDs, err := s.resolveCategoryIDs(ctx, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	price := input.Price
	product := &models.Product{
		StoreID:        store.ID,
		Name:           name,
		Slug:           productSlug,
		Description:    input.Description,
		Price:          &price,
		CompareAtPrice: input.CompareAtPrice,
		SKU:            input.SKU,
		Status:         enums.ProductStatusDraft,
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, product, categoryIDs)
	}); err != nil {
		if db.IsUniqueViolation(err, slugConstraint) {
			return nil, slugConflict(productSlug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return s.reload(ctx, product.ID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	return s.reload(ctx, id)
}

func (s *service) GetPublished(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindPublishedByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return FromModel(product), nil
}

func (s *service) GetOwned(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	if err := s.ensureOwner(ctx, ownerID, product); err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) ListByStore(ctx context.Context, ownerID uuid.UUID) ([]ProductDTO, error) {
	store, err := s.stores.ResolveOwnedStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store products")
	}
	return FromModels(rows), nil
}

func (s *service) Update(ctx context.Context, ownerID, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validatePrices(input.Price, input.CompareAtPrice); err != nil {
		return nil, err
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	var categoryIDs []uuid.UUID
	if input.CategoryIDs != nil {
		resolved, err := s.resolveCategoryIDs(ctx, *input.CategoryIDs)
		if err != nil {
			return nil, err
		}
		categoryIDs = resolved
	}

	storeID, err := s.ownedStoreID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var nextSlug string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := loadOwnedForUpdate(ctx, txRepo, storeID, id)
		if err != nil {
			return err
		}

		if input.Slug != nil {
			nextSlug = strings.TrimSpace(*input.Slug)
			if nextSlug == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
			}
			if nextSlug != product.Slug {
				taken, err := txRepo.SlugExists(ctx, product.StoreID, nextSlug, &product.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
				}
				if taken {
					return slugConflict(nextSlug)
				}
				product.Slug = nextSlug
			}
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			product.Name = name
		}
		if input.Description != nil {
			product.Description = input.Description
		}
		if input.Price != nil {
			price := *input.Price
			product.Price = &price
		}
		if input.CompareAtPrice != nil {
			product.CompareAtPrice = input.CompareAtPrice
		}
		if input.SKU != nil {
			product.SKU = input.SKU
		}
		if input.Quantity != nil {
			product.Quantity = *input.Quantity
		}
		if input.IsFeatured != nil {
			product.IsFeatured = *input.IsFeatured
		}

		if err := txRepo.Update(ctx, product); err != nil {
			return err
		}
		if input.CategoryIDs != nil {
			if err := txRepo.ReplaceCategories(ctx, product.ID, categoryIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, slugConstraint) {
			return nil, slugConflict(nextSlug)
		}
		return nil, asServiceError(err, "update product")
	}
	return s.reload(ctx, id)
}

func (s *service) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, id)
	}
	if err := s.ensureOwner(ctx, ownerID, product); err != nil {
		return err
	}
	affected, err := s.repo.SoftDelete(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete product")
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// Publish makes a draft visible once it has a name, a price and at least one
// image. The checks and the write share one transaction.
func (s *service) Publish(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error) {
	storeID, err := s.ownedStoreID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := loadOwnedForUpdate(ctx, txRepo, storeID, id)
		if err != nil {
			return err
		}
		if product.Status == enums.ProductStatusHidden {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "product '%s' is hidden by an administrator", id)
		}
		if strings.TrimSpace(product.Name) == "" || product.Price == nil {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "product must have a name and price to be published")
		}
		images, err := txRepo.CountImages(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count product images")
		}
		if images == 0 {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "product must have at least one image to be published")
		}

		now := s.now()
		product.Status = enums.ProductStatusPublished
		product.PublishedAt = &now
		return txRepo.Update(ctx, product)
	})
	if err != nil {
		return nil, asServiceError(err, "publish product")
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product published")
	return s.reload(ctx, id)
}

func (s *service) Unpublish(ctx context.Context, ownerID, id uuid.UUID) (*ProductDTO, error) {
	storeID, err := s.ownedStoreID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := loadOwnedForUpdate(ctx, txRepo, storeID, id)
		if err != nil {
			return err
		}
		if product.Status == enums.ProductStatusHidden {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "product '%s' is hidden by an administrator", id)
		}
		product.Status = enums.ProductStatusDraft
		product.PublishedAt = nil
		return txRepo.Update(ctx, product)
	})
	if err != nil {
		return nil, asServiceError(err, "unpublish product")
	}
	return s.reload(ctx, id)
}

// AddImage attaches an image. Position defaults to the current image count
// and only the first image defaults to primary.
func (s *service) AddImage(ctx context.Context, ownerID, id uuid.UUID, input AddImageInput) (*ProductDTO, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url is required")
	}

	storeID, err := s.ownedStoreID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := loadOwnedForUpdate(ctx, txRepo, storeID, id)
		if err != nil {
			return err
		}
		count, err := txRepo.CountImages(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count product images")
		}
		if count >= MaxImages {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "maximum %d images per product", MaxImages)
		}

		image := &models.ProductImage{
			ProductID: product.ID,
			URL:       url,
			AltText:   input.AltText,
			Position:  int(count),
			IsPrimary: count == 0,
		}
		if input.Position != nil {
			image.Position = *input.Position
		}
		if input.IsPrimary != nil {
			image.IsPrimary = *input.IsPrimary
		}
		return txRepo.CreateImage(ctx, image)
	})
	if err != nil {
		return nil, asServiceError(err, "add product image")
	}
	return s.reload(ctx, id)
}

// RemoveImage detaches one image. No other image is promoted to primary.
func (s *service) RemoveImage(ctx context.Context, ownerID, id, imageID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	if err := s.ensureOwner(ctx, ownerID, product); err != nil {
		return nil, err
	}
	affected, err := s.repo.DeleteImage(ctx, product.ID, imageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product image")
	}
	if affected == 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "image with ID '%s' not found", imageID)
	}
	return s.reload(ctx, id)
}

// Hide is an admin takedown; it applies from any status.
func (s *service) Hide(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		product.Status = enums.ProductStatusHidden
		return txRepo.Update(ctx, product)
	})
	if err != nil {
		return nil, asServiceError(err, "hide product")
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product hidden")
	return s.reload(ctx, id)
}

// Unhide returns a hidden product to draft, never straight to published.
func (s *service) Unhide(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if product.Status != enums.ProductStatusHidden {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "product '%s' is not hidden", id)
		}
		product.Status = enums.ProductStatusDraft
		product.PublishedAt = nil
		return txRepo.Update(ctx, product)
	})
	if err != nil {
		return nil, asServiceError(err, "unhide product")
	}
	return s.reload(ctx, id)
}

func (s *service) ListAll(ctx context.Context, page pagination.Params) (pagination.Page[ProductDTO], error) {
	page = pagination.Normalize(page)
	rows, total, err := s.repo.ListAll(ctx, page)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return pagination.NewPage(FromModels(rows), total, page), nil
}

func (s *service) ListPublishedByStoreSlug(ctx context.Context, storeSlug string) ([]ProductDTO, error) {
	rows, err := s.repo.ListPublishedByStoreSlug(ctx, storeSlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store catalog")
	}
	return FromModels(rows), nil
}

func (s *service) ListPublishedByCategorySlug(ctx context.Context, categorySlug string, page pagination.Params) (pagination.Page[ProductDTO], error) {
	category, err := s.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return pagination.Page[ProductDTO]{}, err
	}
	page = pagination.Normalize(page)
	rows, total, err := s.repo.ListPublishedByCategory(ctx, category.ID, page)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category catalog")
	}
	return pagination.NewPage(FromModels(rows), total, page), nil
}

// ownedStoreID resolves the caller's store before any transaction opens.
// Callers without a store see the product as missing.
func (s *service) ownedStoreID(ctx context.Context, ownerID, productID uuid.UUID) (uuid.UUID, error) {
	store, err := s.stores.ResolveOwnedStore(ctx, ownerID)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return uuid.Nil, notFound(productID)
		}
		return uuid.Nil, err
	}
	return store.ID, nil
}

// ensureOwner hides other vendors' products behind NotFound.
func (s *service) ensureOwner(ctx context.Context, ownerID uuid.UUID, product *models.Product) error {
	storeID, err := s.ownedStoreID(ctx, ownerID, product.ID)
	if err != nil {
		return err
	}
	if storeID != product.StoreID {
		return notFound(product.ID)
	}
	return nil
}

func loadOwnedForUpdate(ctx context.Context, txRepo *Repository, storeID, id uuid.UUID) (*models.Product, error) {
	product, err := txRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	if product.StoreID != storeID {
		return nil, notFound(id)
	}
	return product, nil
}

func (s *service) resolveCategoryIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.categories.ResolveIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.ID)
	}
	return out, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return FromModel(product), nil
}

func validatePrices(price, compareAt *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if compareAt != nil && compareAt.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "compare_at_price cannot be negative")
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "product with ID '%s' not found", id)
}

func slugConflict(productSlug string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "product with slug '%s' already exists in this store", productSlug)
}

func lookupError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

// asServiceError keeps typed errors raised inside a transaction and wraps
// anything else as a dependency failure.
func asServiceError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
