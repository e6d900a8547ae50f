package search

import (
	"context"
	"strings"

	"github.com/angelmondragon/marketplace-backend/internal/products"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository runs read-only catalog queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Products counts the filtered set, then loads one page of it.
func (r *Repository) Products(ctx context.Context, q ProductQuery, scope Scope, page pagination.Params) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(products.NotDeleted, productFilter(q, scope)).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	var rows []models.Product
	if err := base.
		Scopes(products.WithRelations).
		Order(orderFor(q.Sort)).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Stores pages stores matching filter, newest first.
func (r *Repository) Stores(ctx context.Context, filter stores.StoreFilter, page pagination.Params) ([]models.Store, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Scopes(filter.Scope).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	var rows []models.Store
	if err := base.
		Order("stores.created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func productFilter(q ProductQuery, scope Scope) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if scope == ScopePublic {
			tx = tx.Scopes(products.PubliclyVisible)
		}
		if term := strings.TrimSpace(q.Q); term != "" {
			pattern := db.ContainsPattern(term)
			tx = tx.Where(
				"(LOWER(products.name) LIKE ? "+db.LikeEscape+" OR LOWER(products.description) LIKE ? "+db.LikeEscape+")",
				pattern, pattern,
			)
		}
		if q.CategoryID != nil {
			tx = tx.Scopes(products.InCategory(*q.CategoryID))
		}
		if q.StoreID != nil {
			tx = tx.Where("products.store_id = ?", *q.StoreID)
		}
		if q.MinPrice != nil {
			tx = tx.Where("products.price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			tx = tx.Where("products.price <= ?", *q.MaxPrice)
		}
		return tx
	}
}
