package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const nameConstraint = "idx_subscription_plans_name"

type planRepository interface {
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	NameExists(ctx context.Context, name string) (bool, error)
	ListAll(ctx context.Context) ([]models.SubscriptionPlan, error)
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service manages the subscription plan registry.
type Service interface {
	Create(ctx context.Context, input CreatePlanInput) (*PlanDTO, error)
	ListAll(ctx context.Context) ([]PlanDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PlanDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo planRepository
	logg *logger.Logger
}

func NewService(repo planRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreatePlanInput) (*PlanDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if !input.Plan.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid plan tier %q", input.Plan)
	}

	plan := &models.SubscriptionPlan{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Currency:    currency,
		Plan:        input.Plan,
		Status:      enums.PlanStatusActive,
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid plan status %q", *input.Status)
		}
		plan.Status = *input.Status
	}
	if input.AutoRenew != nil {
		plan.AutoRenew = *input.AutoRenew
	}

	exists, err := s.repo.NameExists(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check plan name")
	}
	if exists {
		return nil, nameConflict(name)
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, nameConstraint) {
			return nil, nameConflict(name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert plan")
	}
	return FromModel(plan), nil
}

func (s *service) ListAll(ctx context.Context) ([]PlanDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return fromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PlanDTO, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(plan), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		if name != plan.Name {
			exists, err := s.repo.NameExists(ctx, name)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check plan name")
			}
			if exists {
				return nil, nameConflict(name)
			}
			plan.Name = name
		}
	}
	if input.Description != nil {
		plan.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		plan.Price = *input.Price
	}
	if input.Currency != nil {
		currency := strings.TrimSpace(*input.Currency)
		if currency == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency cannot be empty")
		}
		plan.Currency = currency
	}
	if input.Plan != nil {
		if !input.Plan.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid plan tier %q", *input.Plan)
		}
		plan.Plan = *input.Plan
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid plan status %q", *input.Status)
		}
		plan.Status = *input.Status
	}
	if input.AutoRenew != nil {
		plan.AutoRenew = *input.AutoRenew
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		if db.IsUniqueViolation(err, nameConstraint) {
			return nil, nameConflict(plan.Name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
	}
	return FromModel(plan), nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete plan")
	}
	if affected == 0 {
		return notFound(id)
	}
	s.logg.Info(s.logg.WithField(ctx, "plan_id", id.String()), "subscription plan removed")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	return plan, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "subscription plan with ID '%s' not found", id)
}

func nameConflict(name string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "subscription plan with name '%s' already exists", name)
}
