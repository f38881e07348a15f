package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/pagination"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(catalogDDL).Error)
	return conn
}

func TestRepoListProducts_ExcludesInactive(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	rows, total, err := repo.ListProducts(context.Background(), ListParams{Page: pagination.Params{Page: 1, Limit: 10}})
	require.NoError(t, err)

	assert.EqualValues(t, 2, total)
	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.Slug)
	}
	assert.Contains(t, slugs, seeded.runner.Slug)
	assert.Contains(t, slugs, seeded.boot.Slug)
	assert.NotContains(t, slugs, "retired-sneaker")
}

func TestRepoListProducts_PriceWindow(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	minPrice := decimal.NewFromInt(100)
	rows, total, err := repo.ListProducts(context.Background(), ListParams{
		MinPrice: &minPrice,
		Page:     pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, seeded.boot.ID, rows[0].ID)
}

func TestRepoListProducts_SortPriceAsc(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	rows, _, err := repo.ListProducts(context.Background(), ListParams{
		Sort: SortPriceAsc,
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, seeded.runner.ID, rows[0].ID)
	assert.Equal(t, seeded.boot.ID, rows[1].ID)
}

func TestRepoListProducts_SearchMatchesDescription(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	rows, total, err := repo.ListProducts(context.Background(), ListParams{
		Search: "waterproof",
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, seeded.boot.ID, rows[0].ID)
}

func TestRepoFindBySlug_PreloadsRelations(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	product, err := repo.FindBySlug(context.Background(), seeded.runner.Slug)
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, seeded.runner.ID, product.ID)
	require.NotNil(t, product.Category)
	assert.Equal(t, "running", product.Category.Slug)

	_, err = repo.FindBySlug(context.Background(), "retired-sneaker")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoListFeatured_HonorsLimit(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	rows, err := repo.ListFeatured(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, seeded.runner.ID, rows[0].ID)
}

func TestRepoDeleteProduct_ReportsMissingRows(t *testing.T) {
	conn := setupRepoTestDB(t)
	seeded := seed(t, conn)
	repo := NewRepository(conn)

	removed, err := repo.DeleteProduct(context.Background(), seeded.boot.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteProduct(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, removed)
}
