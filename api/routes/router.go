package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-backend/api/controllers"
	"github.com/angelmondragon/marketplace-backend/api/middleware"
	"github.com/angelmondragon/marketplace-backend/internal/categories"
	"github.com/angelmondragon/marketplace-backend/internal/plans"
	"github.com/angelmondragon/marketplace-backend/internal/products"
	"github.com/angelmondragon/marketplace-backend/internal/search"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/internal/subscriptions"
	"github.com/angelmondragon/marketplace-backend/pkg/config"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/marketplace-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. DB is required;
// Redis and RateLimiter are nil when Redis is not configured.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter redis.RateLimiter

	Stores        stores.Service
	Products      products.Service
	Categories    categories.Service
	Plans         plans.Service
	Subscriptions subscriptions.Service
	Search        search.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, p.Metrics),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	searchPolicy := middleware.NewRateLimitPolicy("search", cfg.Search.RateLimitWindow, cfg.Search.RateLimitPerIP)
	searchLimit := middleware.RateLimit(searchPolicy, p.RateLimiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public catalogue
		r.Get("/categories", controllers.CategoriesActive(p.Categories, logg))
		r.Get("/categories/{slug}", controllers.CategoryBySlug(p.Categories, logg))
		r.Get("/categories/{slug}/products", controllers.ProductsByCategory(p.Products, logg))
		r.With(searchLimit).Get("/stores", controllers.StoreSearch(p.Search, search.ScopePublic, logg))
		r.Get("/stores/{slug}", controllers.StoreBySlug(p.Stores, logg))
		r.Get("/stores/{slug}/products", controllers.ProductsByStore(p.Products, logg))
		r.With(searchLimit).Get("/products/search", controllers.ProductSearch(p.Search, search.ScopePublic, logg))
		r.Get("/products/{productId}", controllers.ProductGet(p.Products, logg))
		r.Get("/plans", controllers.PlansList(p.Plans, logg))
		r.Get("/plans/{planId}", controllers.PlanGet(p.Plans, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/me/store", func(r chi.Router) {
				r.Post("/", controllers.StoreRegister(p.Stores, logg))
				r.Get("/", controllers.MyStore(p.Stores, logg))
				r.Patch("/", controllers.MyStoreUpdate(p.Stores, logg))
			})

			r.Route("/me/products", func(r chi.Router) {
				r.Post("/", controllers.VendorCreateProduct(p.Products, logg))
				r.Get("/", controllers.VendorListProducts(p.Products, logg))
				r.Get("/{productId}", controllers.VendorGetProduct(p.Products, logg))
				r.Patch("/{productId}", controllers.VendorUpdateProduct(p.Products, logg))
				r.Delete("/{productId}", controllers.VendorDeleteProduct(p.Products, logg))
				r.Post("/{productId}/publish", controllers.VendorPublishProduct(p.Products, logg))
				r.Post("/{productId}/unpublish", controllers.VendorUnpublishProduct(p.Products, logg))
				r.Post("/{productId}/images", controllers.VendorAddProductImage(p.Products, logg))
				r.Delete("/{productId}/images/{imageId}", controllers.VendorRemoveProductImage(p.Products, logg))
			})

			r.Route("/me/subscriptions", func(r chi.Router) {
				r.Post("/", controllers.Subscribe(p.Subscriptions, logg))
				r.Get("/", controllers.MySubscriptions(p.Subscriptions, logg))
				r.Get("/active", controllers.MyActiveSubscription(p.Subscriptions, logg))
				r.Get("/is-active", controllers.MySubscriptionStatus(p.Subscriptions, logg))
				r.Post("/{subscriptionId}/cancel", controllers.MySubscriptionCancel(p.Subscriptions, logg))
				r.Post("/{subscriptionId}/renew", controllers.MySubscriptionRenew(p.Subscriptions, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleSystemAdmin))

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreSearch(p.Search, search.ScopeAdmin, logg))
			r.Get("/{storeId}", controllers.AdminStoreGet(p.Stores, logg))
			r.Patch("/{storeId}", controllers.AdminStoreUpdate(p.Stores, logg))
			r.Delete("/{storeId}", controllers.AdminStoreRemove(p.Stores, logg))
			for _, action := range []string{
				controllers.StoreActionApprove,
				controllers.StoreActionReject,
				controllers.StoreActionSuspend,
				controllers.StoreActionDeactivate,
			} {
				r.Post("/{storeId}/"+action, controllers.AdminStoreTransition(p.Stores, action, logg))
			}
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(p.Products, logg))
			r.Get("/search", controllers.ProductSearch(p.Search, search.ScopeAdmin, logg))
			r.Get("/{productId}", controllers.AdminGetProduct(p.Products, logg))
			r.Post("/{productId}/hide", controllers.AdminHideProduct(p.Products, logg))
			r.Post("/{productId}/unhide", controllers.AdminUnhideProduct(p.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminListCategories(p.Categories, logg))
			r.Post("/", controllers.AdminCreateCategory(p.Categories, logg))
			r.Get("/{categoryId}", controllers.AdminGetCategory(p.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(p.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminRemoveCategory(p.Categories, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.PlansList(p.Plans, logg))
			r.Post("/", controllers.AdminCreatePlan(p.Plans, logg))
			r.Get("/{planId}", controllers.PlanGet(p.Plans, logg))
			r.Patch("/{planId}", controllers.AdminUpdatePlan(p.Plans, logg))
			r.Delete("/{planId}", controllers.AdminRemovePlan(p.Plans, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.AdminListSubscriptions(p.Subscriptions, logg))
			r.Post("/sweep", controllers.AdminSweepSubscriptions(p.Subscriptions, logg))
			r.Get("/{subscriptionId}", controllers.AdminGetSubscription(p.Subscriptions, logg))
			r.Patch("/{subscriptionId}", controllers.AdminUpdateSubscription(p.Subscriptions, logg))
			r.Delete("/{subscriptionId}", controllers.AdminRemoveSubscription(p.Subscriptions, logg))
		})
	})

	return r
}
