// Package dbtest opens isolated SQLite databases carrying the full marketplace
// schema, plus seed helpers for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-backend/pkg/config"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"github.com/angelmondragon/marketplace-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Open returns a client bound to a fresh in-memory database.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:          dsn,
		Driver:       db.DriverSQLite,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := migrate.ApplySQLiteSchema(context.Background(), client.DB()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return client
}

func SeedUser(t testing.TB, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	user := models.User{
		ID:    uuid.New(),
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:  role,
	}
	mustCreate(t, conn, &user)
	return user
}

func SeedStore(t testing.TB, conn *gorm.DB, ownerID uuid.UUID, name, slug string, status enums.StoreStatus) models.Store {
	t.Helper()
	store := models.Store{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         name,
		Slug:         slug,
		Status:       status,
		ContactEmail: "owner@example.com",
	}
	mustCreate(t, conn, &store)
	return store
}

func SeedCategory(t testing.TB, conn *gorm.DB, name, slug string, active bool) models.Category {
	t.Helper()
	category := models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		IsActive: active,
	}
	mustCreate(t, conn, &category)
	return category
}

// ProductSeed describes a product row; zero fields get usable defaults.
type ProductSeed struct {
	StoreID     uuid.UUID
	Name        string
	Slug        string
	Description string
	Price       string
	Status      enums.ProductStatus
	CreatedAt   time.Time
	Categories  []uuid.UUID
}

func SeedProduct(t testing.TB, conn *gorm.DB, seed ProductSeed) models.Product {
	t.Helper()
	if seed.Status == "" {
		seed.Status = enums.ProductStatusDraft
	}
	if seed.Price == "" {
		seed.Price = "10.00"
	}
	if seed.Slug == "" {
		seed.Slug = uuid.NewString()[:8]
	}
	price := decimal.RequireFromString(seed.Price)
	product := models.Product{
		ID:      uuid.New(),
		StoreID: seed.StoreID,
		Name:    seed.Name,
		Slug:    seed.Slug,
		Price:   &price,
		Status:  seed.Status,
	}
	if seed.Description != "" {
		desc := seed.Description
		product.Description = &desc
	}
	if !seed.CreatedAt.IsZero() {
		product.CreatedAt = seed.CreatedAt.UTC()
		product.UpdatedAt = seed.CreatedAt.UTC()
	}
	if seed.Status == enums.ProductStatusPublished {
		now := time.Now().UTC()
		product.PublishedAt = &now
	}
	mustCreate(t, conn, &product)

	for _, categoryID := range seed.Categories {
		link := models.ProductCategory{ProductID: product.ID, CategoryID: categoryID}
		mustCreate(t, conn, &link)
	}
	return product
}

func SeedPlan(t testing.TB, conn *gorm.DB, name string, status enums.PlanStatus) models.SubscriptionPlan {
	t.Helper()
	plan := models.SubscriptionPlan{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " plan",
		Price:       decimal.RequireFromString("29.99"),
		Currency:    "USD",
		Plan:        enums.PlanTierBasic,
		Status:      status,
		AutoRenew:   true,
	}
	mustCreate(t, conn, &plan)
	return plan
}

func SeedSubscription(t testing.TB, conn *gorm.DB, userID, planID uuid.UUID, status enums.SubscriptionStatus, end time.Time) models.UserSubscription {
	t.Helper()
	sub := models.UserSubscription{
		ID:                 uuid.New(),
		UserID:             userID,
		SubscriptionPlanID: planID,
		StartDate:          end.UTC().Add(-30 * 24 * time.Hour),
		EndDate:            end.UTC(),
		Status:             status,
		AutoRenew:          true,
	}
	mustCreate(t, conn, &sub)
	return sub
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}
