package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/redis"
	"github.com/angelmondragon/marketplace-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const slugConstraint = "idx_categories_slug"

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListActive(ctx context.Context) ([]models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service exposes the category catalog.
type Service interface {
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error)
	ListActive(ctx context.Context) ([]CategoryDTO, error)
	ListAll(ctx context.Context) ([]CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
	ResolveIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
}

type service struct {
	repo     categoryRepository
	cache    redis.Cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the category service. cache may be nil, in which case
// active listings always read from the database.
func NewService(repo categoryRepository, cache redis.Cache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	categorySlug := slug.Make(name)
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		categorySlug = strings.TrimSpace(*input.Slug)
	}
	if categorySlug == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "name %q does not produce a usable slug", name)
	}

	exists, err := s.repo.SlugExists(ctx, categorySlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category slug")
	}
	if exists {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category with slug '%s' already exists", categorySlug)
	}

	category := &models.Category{
		Name:        name,
		Slug:        categorySlug,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, slugConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category with slug '%s' already exists", categorySlug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert category")
	}
	s.invalidateActive(ctx)
	return FromModel(category), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("category with ID '%s' not found", id))
	}
	return FromModel(category), nil
}

func (s *service) GetBySlug(ctx context.Context, categorySlug string) (*CategoryDTO, error) {
	category, err := s.repo.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("category with slug '%s' not found", categorySlug))
	}
	return FromModel(category), nil
}

func (s *service) ListActive(ctx context.Context) ([]CategoryDTO, error) {
	var key string
	if s.cache != nil {
		key = s.cache.CacheKey("categories", "active")
		var cached []CategoryDTO
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.warn(ctx, "active categories cache read failed", err)
		} else if found {
			return cached, nil
		}
	}

	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active categories")
	}
	out := fromModels(rows)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, s.cacheTTL); err != nil {
			s.warn(ctx, "active categories cache write failed", err)
		}
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return fromModels(rows), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("category with ID '%s' not found", id))
	}

	if input.Slug != nil {
		next := strings.TrimSpace(*input.Slug)
		if next == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
		}
		if next != category.Slug {
			exists, err := s.repo.SlugExists(ctx, next)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category slug")
			}
			if exists {
				return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category with slug '%s' already exists", next)
			}
			category.Slug = next
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if db.IsUniqueViolation(err, slugConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category with slug '%s' already exists", category.Slug)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	s.invalidateActive(ctx)
	return FromModel(category), nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "category with ID '%s' not found", id)
	}
	s.invalidateActive(ctx)
	return nil
}

// ResolveIDs returns the categories that exist among ids. Unknown ids are
// dropped without error.
func (s *service) ResolveIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	rows, err := s.repo.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve categories")
	}
	return rows, nil
}

func (s *service) invalidateActive(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey("categories", "active")); err != nil {
		s.warn(ctx, "active categories cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
