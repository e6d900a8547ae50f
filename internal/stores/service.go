package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketplace-backend/internal/identity"
	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
	"github.com/angelmondragon/marketplace-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	slugConstraint  = "idx_stores_slug"
	ownerConstraint = "idx_stores_owner_id"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
	OwnerHasStore(ctx context.Context, ownerID uuid.UUID) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter StoreFilter) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service exposes the store registry.
type Service interface {
	Register(ctx context.Context, ownerID uuid.UUID, input RegisterStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	GetBySlug(ctx context.Context, slug string) (*StoreDTO, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error)
	ListFiltered(ctx context.Context, filter StoreFilter) ([]StoreDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	UpdateMine(ctx context.Context, ownerID uuid.UUID, input UpdateMyStoreInput) (*StoreDTO, error)
	Approve(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Reject(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Suspend(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
	ResolveOwnedStore(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

type service struct {
	repo      storeRepository
	directory identity.Directory
	logg      *logger.Logger
}

// NewService builds a store service with the provided collaborators.
func NewService(repo storeRepository, directory identity.Directory, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if directory == nil {
		return nil, fmt.Errorf("identity directory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, directory: directory, logg: logg}, nil
}

func (s *service) Register(ctx context.Context, ownerID uuid.UUID, input RegisterStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_email is required")
	}

	if _, err := s.directory.Resolve(ctx, ownerID); err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "store owner %s not found", ownerID)
		}
		return nil, err
	}

	owned, err := s.repo.OwnerHasStore(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing store")
	}
	if owned {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "user %s already has a store", ownerID)
	}

	storeSlug := slug.Make(name)
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		storeSlug = strings.TrimSpace(*input.Slug)
	}
	if storeSlug == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "name %q does not produce a usable slug", name)
	}

	taken, err := s.repo.SlugExists(ctx, storeSlug)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store slug")
	}
	if taken {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "store with slug '%s' already exists", storeSlug)
	}

	store := &models.Store{
		OwnerID:      ownerID,
		Name:         name,
		Slug:         storeSlug,
		Description:  input.Description,
		Logo:         input.Logo,
		Status:       enums.StoreStatusPendingApproval,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		ContactPhone: input.ContactPhone,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		if conflict := registerConflict(err, ownerID, storeSlug); conflict != nil {
			return nil, conflict
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert store")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"store_id": store.ID.String(),
		"owner_id": ownerID.String(),
		"slug":     store.Slug,
	}), "store registered")
	return FromModel(store), nil
}

// registerConflict maps a storage unique violation back to the constraint
// that fired. Postgres reports the index name, SQLite the column.
func registerConflict(err error, ownerID uuid.UUID, storeSlug string) error {
	if !db.IsUniqueViolation(err, "") {
		return nil
	}
	msg := err.Error()
	if db.IsUniqueViolation(err, ownerConstraint) &&
		(strings.Contains(msg, ownerConstraint) || strings.Contains(msg, "stores.owner_id")) {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "user %s already has a store", ownerID)
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "store with slug '%s' already exists", storeSlug)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) GetBySlug(ctx context.Context, storeSlug string) (*StoreDTO, error) {
	store, err := s.repo.FindBySlug(ctx, storeSlug)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("store with slug '%s' not found", storeSlug))
	}
	return FromModel(store), nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*StoreDTO, error) {
	store, err := s.ResolveOwnedStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

// ResolveOwnedStore returns the caller's store or NotFound.
func (s *service) ResolveOwnedStore(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("no store found for user %s", ownerID))
	}
	return store, nil
}

func (s *service) ListFiltered(ctx context.Context, filter StoreFilter) ([]StoreDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid store status %q", *filter.Status)
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return FromModels(rows), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid store status %q", *input.Status)
		}
		store.Status = *input.Status
	}
	if err := applyProfile(store, input.Name, input.Description, input.Logo, input.ContactEmail, input.ContactPhone); err != nil {
		return nil, err
	}
	return s.save(ctx, store)
}

func (s *service) UpdateMine(ctx context.Context, ownerID uuid.UUID, input UpdateMyStoreInput) (*StoreDTO, error) {
	store, err := s.ResolveOwnedStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(store, input.Name, input.Description, input.Logo, input.ContactEmail, input.ContactPhone); err != nil {
		return nil, err
	}
	return s.save(ctx, store)
}

func applyProfile(store *models.Store, name, description, logo, email, phone *string) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		store.Name = trimmed
	}
	if description != nil {
		store.Description = description
	}
	if logo != nil {
		store.Logo = logo
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "contact_email cannot be empty")
		}
		store.ContactEmail = trimmed
	}
	if phone != nil {
		store.ContactPhone = phone
	}
	return nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	return s.transition(ctx, id, enums.StoreStatusActive)
}

func (s *service) Reject(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	return s.transition(ctx, id, enums.StoreStatusRejected)
}

func (s *service) Suspend(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	return s.transition(ctx, id, enums.StoreStatusSuspended)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	return s.transition(ctx, id, enums.StoreStatusInactive)
}

// transition applies an admin status decision. Repeating a decision is a no-op
// in effect, not an error.
func (s *service) transition(ctx context.Context, id uuid.UUID, next enums.StoreStatus) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := store.Status
	store.Status = next

	dto, err := s.save(ctx, store)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"store_id": id.String(),
		"from":     previous.String(),
		"to":       next.String(),
	}), "store status changed")
	return dto, nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "store with ID '%s' not found", id)
	}
	s.logg.Info(s.logg.WithStoreID(ctx, id.String()), "store removed")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("store with ID '%s' not found", id))
	}
	return store, nil
}

func (s *service) save(ctx context.Context, store *models.Store) (*StoreDTO, error) {
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
}
