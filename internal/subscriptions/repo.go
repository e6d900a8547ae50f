package subscriptions

import (
	"context"
	"time"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists user subscriptions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, sub *models.UserSubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(sub).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.db.WithContext(ctx).Preload("Plan").First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByIDForUpdate row-locks the subscription on Postgres.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.UserSubscription, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == db.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sub models.UserSubscription
	if err := q.First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindActiveByUser returns the user's ACTIVE row regardless of its end date.
func (r *Repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, enums.SubscriptionStatusActive).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// HasOtherActive reports whether the user holds an ACTIVE row besides exceptID.
func (r *Repository) HasOtherActive(ctx context.Context, userID, exceptID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("user_id = ? AND status = ? AND id <> ?", userID, enums.SubscriptionStatusActive, exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]models.UserSubscription, error) {
	return r.list(ctx, nil)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UserSubscription, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("user_id = ?", userID) })
}

func (r *Repository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]models.UserSubscription, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("subscription_plan_id = ?", planID) })
}

func (r *Repository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.UserSubscription, error) {
	q := r.db.WithContext(ctx).Preload("Plan")
	if scope != nil {
		q = q.Scopes(scope)
	}
	var rows []models.UserSubscription
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, sub *models.UserSubscription) error {
	return r.db.WithContext(ctx).
		Model(sub).
		Select("status", "auto_renew", "end_date", "updated_at").
		Updates(sub).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.UserSubscription{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// ListExpired returns ACTIVE rows whose end date is strictly before now.
func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]models.UserSubscription, error) {
	var rows []models.UserSubscription
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", enums.SubscriptionStatusActive, now).
		Order("end_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkExpired flips one row to EXPIRED only while it is still ACTIVE and
// past its end date, so overlapping sweeps update each row at most once.
func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSubscription{}).
		Where("id = ? AND status = ? AND end_date < ?", id, enums.SubscriptionStatusActive, now).
		Updates(map[string]any{"status": enums.SubscriptionStatusExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}
