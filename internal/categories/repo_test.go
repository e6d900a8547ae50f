package categories

import (
	"context"
	"testing"

	"github.com/angelmondragon/marketplace-backend/pkg/db"
	"github.com/angelmondragon/marketplace-backend/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryUniqueSlugIsEnforcedByStorage(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Category{Name: "Flower", Slug: "flower", IsActive: true}))
	err := repo.Create(ctx, &models.Category{Name: "Flower 2", Slug: "flower", IsActive: true})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, slugConstraint))
}

func TestRepositoryPersistsInactiveFlag(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	category := &models.Category{Name: "Hidden", Slug: "hidden", IsActive: false}
	require.NoError(t, repo.Create(ctx, category))
	assert.NotEqual(t, uuid.Nil, category.ID)

	loaded, err := repo.FindByID(ctx, category.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	exists, err := repo.SlugExists(ctx, "hidden")
	require.NoError(t, err)
	assert.True(t, exists)

	affected, err := repo.Delete(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}
