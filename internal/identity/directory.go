// Package identity is the read-only view over registered users that the
// store and product catalogs use for ownership checks.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is the subset of a user the domain depends on.
type Identity struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

// Directory resolves identities by id.
type Directory interface {
	Resolve(ctx context.Context, id uuid.UUID) (*Identity, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type directory struct {
	repo userReader
}

// NewDirectory builds a Directory over the users repository.
func NewDirectory(repo userReader) (Directory, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &directory{repo: repo}, nil
}

func (d *directory) Resolve(ctx context.Context, id uuid.UUID) (*Identity, error) {
	user, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "user %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve identity")
	}
	return &Identity{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
