package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/marketplace-backend/internal/app"
	pkgAuth "github.com/angelmondragon/marketplace-backend/pkg/auth"
	"github.com/angelmondragon/marketplace-backend/pkg/config"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/metrics"
)

type harness struct {
	t       *testing.T
	handler http.Handler
	cfg     *config.Config
	client  *db.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "marketplace", ExpirationMinutes: 60},
		Search: config.SearchConfig{
			DefaultLimit:    20,
			MaxLimit:        50,
			RateLimitWindow: time.Minute,
			RateLimitPerIP:  100,
		},
	}
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svcs, err := app.Build(app.Params{Config: cfg, DB: client, Logger: logg})
	if err != nil {
		t.Fatalf("app.Build: %v", err)
	}

	reg := prometheus.NewRegistry()
	handler := NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      reg,
		Metrics:       metrics.NewHTTPMetrics(reg),
		DB:            client,
		Stores:        svcs.Stores,
		Products:      svcs.Products,
		Categories:    svcs.Categories,
		Plans:         svcs.Plans,
		Subscriptions: svcs.Subscriptions,
		Search:        svcs.Search,
	})
	return &harness{t: t, handler: handler, cfg: cfg, client: client}
}

func (h *harness) token(role enums.UserRole, userID uuid.UUID) string {
	h.t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		h.t.Fatalf("mint token: %v", err)
	}
	return token
}

// do sends a request and decodes the data envelope into out when non-nil.
func (h *harness) do(method, path, token string, body any, wantStatus int, out any) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		h.t.Fatalf("%s %s: expected %d got %d: %s", method, path, wantStatus, rec.Code, rec.Body.String())
	}
	if out != nil {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			h.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func seedUser(t *testing.T, h *harness, role enums.UserRole) uuid.UUID {
	t.Helper()
	return dbtest.SeedUser(t, h.client.DB(), role).ID
}

type idStatus struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health/live", "", nil, http.StatusOK, nil)
	h.do(http.MethodGet, "/health/ready", "", nil, http.StatusOK, nil)
	h.do(http.MethodGet, "/metrics", "", nil, http.StatusOK, nil)
}

func TestAuthBoundaries(t *testing.T) {
	h := newHarness(t)
	vendorID := uuid.New()

	h.do(http.MethodGet, "/api/v1/me/store", "", nil, http.StatusUnauthorized, nil)
	h.do(http.MethodGet, "/api/admin/v1/stores", h.token(enums.UserRoleVendor, vendorID), nil, http.StatusForbidden, nil)
	h.do(http.MethodGet, "/api/admin/v1/stores", h.token(enums.UserRoleSystemAdmin, uuid.New()), nil, http.StatusOK, nil)
}

func TestVendorStorefrontFlow(t *testing.T) {
	h := newHarness(t)
	vendor := seedUser(t, h, enums.UserRoleVendor)
	vendorToken := h.token(enums.UserRoleVendor, vendor)
	adminToken := h.token(enums.UserRoleSystemAdmin, uuid.New())

	var store idStatus
	h.do(http.MethodPost, "/api/v1/me/store", vendorToken, map[string]any{
		"name":          "Green Leaf",
		"contact_email": "owner@greenleaf.test",
	}, http.StatusCreated, &store)
	if store.Status != string(enums.StoreStatusPendingApproval) {
		t.Fatalf("expected pending store, got %s", store.Status)
	}
	h.do(http.MethodPost, "/api/v1/me/store", vendorToken, map[string]any{
		"name":          "Second",
		"contact_email": "owner@greenleaf.test",
	}, http.StatusConflict, nil)

	var product idStatus
	h.do(http.MethodPost, "/api/v1/me/products", vendorToken, map[string]any{
		"name":  "Blue Dream",
		"price": "35.00",
	}, http.StatusCreated, &product)
	productPath := "/api/v1/me/products/" + product.ID.String()

	h.do(http.MethodPost, productPath+"/publish", vendorToken, nil, http.StatusBadRequest, nil)
	h.do(http.MethodPost, productPath+"/images", vendorToken, map[string]any{
		"url": "https://cdn.example.com/blue-dream.jpg",
	}, http.StatusOK, nil)
	h.do(http.MethodPost, productPath+"/publish", vendorToken, nil, http.StatusOK, nil)

	// store still pending: the product is not publicly visible
	h.do(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil, http.StatusNotFound, nil)

	h.do(http.MethodPost, "/api/admin/v1/stores/"+store.ID.String()+"/approve", adminToken, nil, http.StatusOK, nil)
	h.do(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil, http.StatusOK, nil)

	var page struct {
		Items []idStatus `json:"items"`
		Total int64      `json:"total"`
	}
	h.do(http.MethodGet, "/api/v1/products/search?q=dream&min_price=10", "", nil, http.StatusOK, &page)
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != product.ID {
		t.Fatalf("unexpected search page %+v", page)
	}
	h.do(http.MethodGet, "/api/v1/products/search?min_price=10&max_price=5", "", nil, http.StatusBadRequest, nil)

	h.do(http.MethodPost, "/api/admin/v1/products/"+product.ID.String()+"/hide", adminToken, nil, http.StatusOK, nil)
	h.do(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil, http.StatusNotFound, nil)
	h.do(http.MethodPost, productPath+"/publish", vendorToken, nil, http.StatusBadRequest, nil)
}

func TestSubscriptionFlow(t *testing.T) {
	h := newHarness(t)
	user := seedUser(t, h, enums.UserRoleCustomer)
	userToken := h.token(enums.UserRoleCustomer, user)
	adminToken := h.token(enums.UserRoleSystemAdmin, uuid.New())

	var plan idStatus
	h.do(http.MethodPost, "/api/admin/v1/plans", adminToken, map[string]any{
		"name":     "Pro",
		"price":    "29.99",
		"currency": "USD",
		"plan":     "PREMIUM",
	}, http.StatusCreated, &plan)
	if plan.Status != string(enums.PlanStatusActive) {
		t.Fatalf("expected ACTIVE plan, got %s", plan.Status)
	}

	var sub idStatus
	h.do(http.MethodPost, "/api/v1/me/subscriptions", userToken, map[string]any{"plan_id": plan.ID}, http.StatusCreated, &sub)
	h.do(http.MethodPost, "/api/v1/me/subscriptions", userToken, map[string]any{"plan_id": plan.ID}, http.StatusConflict, nil)

	var status struct {
		Active bool `json:"active"`
	}
	h.do(http.MethodGet, "/api/v1/me/subscriptions/is-active", userToken, nil, http.StatusOK, &status)
	if !status.Active {
		t.Fatal("expected active subscription")
	}

	other := h.token(enums.UserRoleCustomer, seedUser(t, h, enums.UserRoleCustomer))
	h.do(http.MethodPost, "/api/v1/me/subscriptions/"+sub.ID.String()+"/cancel", other, nil, http.StatusNotFound, nil)
	h.do(http.MethodPost, "/api/v1/me/subscriptions/"+sub.ID.String()+"/cancel", userToken, nil, http.StatusOK, nil)
	h.do(http.MethodPost, "/api/v1/me/subscriptions/"+sub.ID.String()+"/renew", userToken, nil, http.StatusBadRequest, nil)
	h.do(http.MethodGet, "/api/v1/me/subscriptions/active", userToken, nil, http.StatusNotFound, nil)

	h.do(http.MethodPost, "/api/admin/v1/subscriptions/sweep", adminToken, nil, http.StatusOK, nil)
}
