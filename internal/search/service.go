package search

import (
	"context"
	"fmt"

	"github.com/angelmondragon/marketplace-backend/internal/products"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"github.com/google/uuid"
)

type catalogReader interface {
	Products(ctx context.Context, q ProductQuery, scope Scope, page pagination.Params) ([]models.Product, int64, error)
	Stores(ctx context.Context, filter stores.StoreFilter, page pagination.Params) ([]models.Store, int64, error)
}

// Service composes catalog searches.
type Service interface {
	SearchProducts(ctx context.Context, q ProductQuery, scope Scope) (pagination.Page[products.ProductDTO], error)
	SearchStores(ctx context.Context, q StoreQuery, scope Scope) (pagination.Page[stores.StoreDTO], error)
}

type service struct {
	repo   catalogReader
	limits pagination.Limits
}

// NewService builds the search service. Zero limits fall back to the
// package defaults.
func NewService(repo catalogReader, limits pagination.Limits) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{repo: repo, limits: limits}, nil
}

func (s *service) SearchProducts(ctx context.Context, q ProductQuery, scope Scope) (pagination.Page[products.ProductDTO], error) {
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot be negative")
	}
	if q.MaxPrice != nil && q.MaxPrice.IsNegative() {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "max_price cannot be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	if q.CategoryID != nil && *q.CategoryID == uuid.Nil {
		q.CategoryID = nil
	}
	if q.StoreID != nil && *q.StoreID == uuid.Nil {
		q.StoreID = nil
	}

	page := s.limits.Normalize(pagination.Params{Page: q.Page, Limit: q.Limit})
	rows, total, err := s.repo.Products(ctx, q, scope, page)
	if err != nil {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return pagination.NewPage(products.FromModels(rows), total, page), nil
}

// SearchStores applies the store filter conjunction. The public scope only
// ever sees ACTIVE stores.
func (s *service) SearchStores(ctx context.Context, q StoreQuery, scope Scope) (pagination.Page[stores.StoreDTO], error) {
	filter := q.Filter
	if scope == ScopePublic {
		active := enums.StoreStatusActive
		filter.Status = &active
	}
	page := s.limits.Normalize(pagination.Params{Page: q.Page, Limit: q.Limit})
	rows, total, err := s.repo.Stores(ctx, filter, page)
	if err != nil {
		return pagination.Page[stores.StoreDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search stores")
	}
	return pagination.NewPage(stores.FromModels(rows), total, page), nil
}
