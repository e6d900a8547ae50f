// Package app wires the domain services shared by the API and the workers.
package app

import (
	"fmt"

	"github.com/angelmondragon/marketplace-backend/internal/categories"
	"github.com/angelmondragon/marketplace-backend/internal/identity"
	"github.com/angelmondragon/marketplace-backend/internal/plans"
	"github.com/angelmondragon/marketplace-backend/internal/products"
	"github.com/angelmondragon/marketplace-backend/internal/search"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/internal/subscriptions"
	"github.com/angelmondragon/marketplace-backend/pkg/config"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/marketplace-backend/pkg/redis"
)

// Params are the infrastructure handles the services are built on. Cache is
// nil when Redis is disabled.
type Params struct {
	Config *config.Config
	DB     *db.Client
	Cache  redis.Cache
	Logger *logger.Logger
}

type Services struct {
	Directory     identity.Directory
	Stores        stores.Service
	Categories    categories.Service
	Products      products.Service
	Plans         plans.Service
	Subscriptions subscriptions.Service
	Search        search.Service
}

// Build constructs every domain service in dependency order.
func Build(p Params) (*Services, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	conn := p.DB.DB()

	directory, err := identity.NewDirectory(identity.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("identity directory: %w", err)
	}
	storeSvc, err := stores.NewService(stores.NewRepository(conn), directory, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("stores service: %w", err)
	}
	categorySvc, err := categories.NewService(categories.NewRepository(conn), p.Cache, p.Config.Search.CategoryTTL, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("categories service: %w", err)
	}
	productSvc, err := products.NewService(products.NewRepository(conn), p.DB, storeSvc, categorySvc, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	planRepo := plans.NewRepository(conn)
	planSvc, err := plans.NewService(planRepo, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("plans service: %w", err)
	}
	subscriptionSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		Plans:             planRepo,
		Directory:         directory,
		TransactionRunner: p.DB,
		Period:            p.Config.Subscription.Period(),
		Logger:            p.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("subscriptions service: %w", err)
	}
	searchSvc, err := search.NewService(search.NewRepository(conn), pagination.Limits{
		Default: p.Config.Search.DefaultLimit,
		Max:     p.Config.Search.MaxLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search service: %w", err)
	}

	return &Services{
		Directory:     directory,
		Stores:        storeSvc,
		Categories:    categorySvc,
		Products:      productSvc,
		Plans:         planSvc,
		Subscriptions: subscriptionSvc,
		Search:        searchSvc,
	}, nil
}
