package search

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-backend/internal/stores"
)

// Scope selects which rows a search may return.
type Scope int

const (
	// ScopePublic returns only published products of active stores.
	ScopePublic Scope = iota
	// ScopeAdmin applies no status restriction.
	ScopeAdmin
)

// Sort keys accepted by product search.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
	SortCreatedAt = "created_at"
)

var productOrder = map[string]string{
	SortPriceAsc:  "products.price ASC, products.created_at DESC",
	SortPriceDesc: "products.price DESC, products.created_at DESC",
	SortName:      "products.name ASC, products.created_at DESC",
	SortCreatedAt: "products.created_at DESC",
}

// orderFor maps a sort key to its ORDER BY clause; unknown keys sort newest
// first.
func orderFor(key string) string {
	if order, ok := productOrder[key]; ok {
		return order
	}
	return productOrder[SortCreatedAt]
}

// ProductQuery holds the optional product search predicates.
type ProductQuery struct {
	Q          string
	CategoryID *uuid.UUID
	StoreID    *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Page       int
	Limit      int
}

// StoreQuery pages the store filter conjunction.
type StoreQuery struct {
	Filter stores.StoreFilter
	Page   int
	Limit  int
}
