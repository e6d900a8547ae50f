package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-backend/internal/identity"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// DefaultPeriod is the subscription length applied on subscribe and renew.
const DefaultPeriod = 30 * 24 * time.Hour

const oneActiveConstraint = "idx_user_subscriptions_one_active"

type planReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the user subscription lifecycle.
type Service interface {
	Subscribe(ctx context.Context, input SubscribeInput) (*SubscriptionDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error)
	ListAll(ctx context.Context) ([]SubscriptionDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]SubscriptionDTO, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error)
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSubscriptionInput) (*SubscriptionDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error)
	CancelForUser(ctx context.Context, userID, id uuid.UUID) (*SubscriptionDTO, error)
	Renew(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error)
	RenewForUser(ctx context.Context, userID, id uuid.UUID) (*SubscriptionDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
	SweepExpired(ctx context.Context) (SweepResult, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              *Repository
	Plans             planReader
	Directory         identity.Directory
	TransactionRunner txRunner
	Period            time.Duration
	Logger            *logger.Logger
	Clock             func() time.Time
}

type service struct {
	repo      *Repository
	plans     planReader
	directory identity.Directory
	tx        txRunner
	period    time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan reader required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("identity directory required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	period := params.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		plans:     params.Plans,
		directory: params.Directory,
		tx:        params.TransactionRunner,
		period:    period,
		logg:      logg,
		now:       clock,
	}, nil
}

func (s *service) Subscribe(ctx context.Context, input SubscribeInput) (*SubscriptionDTO, error) {
	if _, err := s.plans.FindByID(ctx, input.PlanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "subscription plan with ID '%s' not found", input.PlanID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription plan")
	}
	if _, err := s.directory.Resolve(ctx, input.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	sub := &models.UserSubscription{
		UserID:             input.UserID,
		SubscriptionPlanID: input.PlanID,
		StartDate:          now,
		EndDate:            now.Add(s.period),
		Status:             enums.SubscriptionStatusActive,
	}
	if input.AutoRenew != nil {
		sub.AutoRenew = *input.AutoRenew
	}
	if input.PaymentID != nil && strings.TrimSpace(*input.PaymentID) != "" {
		paymentID := strings.TrimSpace(*input.PaymentID)
		sub.PaymentID = &paymentID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindActiveByUser(ctx, input.UserID); err == nil {
			return activeConflict(input.UserID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
		}
		return txRepo.Create(ctx, sub)
	})
	if err != nil {
		if db.IsUniqueViolation(err, oneActiveConstraint) {
			return nil, activeConflict(input.UserID)
		}
		return nil, asServiceError(err, "insert subscription")
	}

	s.logg.Info(s.withSubscription(ctx, sub), "subscription started")
	return s.GetByID(ctx, sub.ID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return FromModel(sub), nil
}

func (s *service) ListAll(ctx context.Context) ([]SubscriptionDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return fromModels(rows), nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]SubscriptionDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user subscriptions")
	}
	return fromModels(rows), nil
}

func (s *service) ListByPlan(ctx context.Context, planID uuid.UUID) ([]SubscriptionDTO, error) {
	rows, err := s.repo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plan subscriptions")
	}
	return fromModels(rows), nil
}

// GetActiveByUser returns the ACTIVE row as stored, even when the sweep has
// not caught up with its end date yet.
func (s *service) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "no active subscription for user '%s'", userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}
	return FromModel(sub), nil
}

// IsActive checks the end date as well as the stored status.
func (s *service) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}
	return sub.EndDate.After(s.now()), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateSubscriptionInput) (*SubscriptionDTO, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid subscription status %q", *input.Status)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sub, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if input.Status != nil {
			sub.Status = *input.Status
		}
		if input.AutoRenew != nil {
			sub.AutoRenew = *input.AutoRenew
		}
		if input.EndDate != nil {
			sub.EndDate = input.EndDate.UTC()
		}
		return txRepo.Update(ctx, sub)
	})
	if err != nil {
		if db.IsUniqueViolation(err, oneActiveConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "subscription '%s' cannot become active while another is active", id)
		}
		return nil, asServiceError(err, "update subscription")
	}
	return s.GetByID(ctx, id)
}

// Cancel is terminal and not idempotent.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.cancel(ctx, nil, id)
}

// CancelForUser cancels only a subscription owned by userID; anyone else's
// reads as NotFound.
func (s *service) CancelForUser(ctx context.Context, userID, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.cancel(ctx, &userID, id)
}

func (s *service) cancel(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) (*SubscriptionDTO, error) {
	var cancelled *models.UserSubscription
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sub, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if err := ensureOwner(ownerID, sub); err != nil {
			return err
		}
		if sub.Status == enums.SubscriptionStatusCancelled {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "subscription '%s' is already cancelled", id)
		}
		sub.Status = enums.SubscriptionStatusCancelled
		sub.AutoRenew = false
		cancelled = sub
		return txRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, asServiceError(err, "cancel subscription")
	}
	s.logg.Info(s.withSubscription(ctx, cancelled), "subscription cancelled")
	return s.GetByID(ctx, id)
}

// Renew extends from the later of the current end date and now. It may
// reactivate an EXPIRED row but never a CANCELLED one.
func (s *service) Renew(ctx context.Context, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.renew(ctx, nil, id)
}

func (s *service) RenewForUser(ctx context.Context, userID, id uuid.UUID) (*SubscriptionDTO, error) {
	return s.renew(ctx, &userID, id)
}

func (s *service) renew(ctx context.Context, ownerID *uuid.UUID, id uuid.UUID) (*SubscriptionDTO, error) {
	var renewed *models.UserSubscription
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		sub, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if err := ensureOwner(ownerID, sub); err != nil {
			return err
		}
		if sub.Status == enums.SubscriptionStatusCancelled {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "subscription '%s' is cancelled; create a new subscription instead", id)
		}
		if sub.Status != enums.SubscriptionStatusActive {
			other, err := txRepo.HasOtherActive(ctx, sub.UserID, sub.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
			}
			if other {
				return activeConflict(sub.UserID)
			}
		}

		base := s.now()
		if sub.EndDate.After(base) {
			base = sub.EndDate
		}
		sub.EndDate = base.Add(s.period)
		sub.Status = enums.SubscriptionStatusActive
		renewed = sub
		return txRepo.Update(ctx, sub)
	})
	if err != nil {
		if db.IsUniqueViolation(err, oneActiveConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "subscription '%s' cannot become active while another is active", id)
		}
		return nil, asServiceError(err, "renew subscription")
	}
	s.logg.Info(s.logg.WithField(s.withSubscription(ctx, renewed), "end_date", renewed.EndDate.Format(time.RFC3339)), "subscription renewed")
	return s.GetByID(ctx, id)
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscription")
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// SweepExpired moves every ACTIVE row past its end date to EXPIRED. Rows are
// updated one by one; a failed row does not undo earlier ones and the
// failures are returned together after the loop.
func (s *service) SweepExpired(ctx context.Context) (SweepResult, error) {
	now := s.now()
	rows, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return SweepResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired subscriptions")
	}

	result := SweepResult{Scanned: len(rows)}
	var errs error
	for i := range rows {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			result.Failed += len(rows) - i
			break
		}
		affected, err := s.repo.MarkExpired(ctx, rows[i].ID, now)
		if err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("expire subscription %s: %w", rows[i].ID, err))
			continue
		}
		if affected > 0 {
			result.Expired++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"scanned": result.Scanned,
		"expired": result.Expired,
		"failed":  result.Failed,
	})
	if errs != nil {
		s.logg.Error(logCtx, "subscription sweep finished with failures", errs)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "expire subscriptions")
	}
	s.logg.Info(logCtx, "subscription sweep finished")
	return result, nil
}

func (s *service) withSubscription(ctx context.Context, sub *models.UserSubscription) context.Context {
	ctx = s.logg.WithSubscriptionID(ctx, sub.ID.String())
	return s.logg.WithUserID(ctx, sub.UserID.String())
}

// ensureOwner is a no-op for admin calls, which pass a nil owner.
func ensureOwner(ownerID *uuid.UUID, sub *models.UserSubscription) error {
	if ownerID != nil && sub.UserID != *ownerID {
		return notFound(sub.ID)
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "user subscription with ID '%s' not found", id)
}

func activeConflict(userID uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "user '%s' already has an active subscription", userID)
}

func lookupError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
}

func asServiceError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
