package products

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

func TestFindActiveByIDSkipsInactive(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	active := mustCreateTestProduct(t, conn, testProductOpts{stock: 5})
	inactive := mustCreateTestProduct(t, conn, testProductOpts{stock: 5, inactive: true})

	got, err := repo.FindActiveByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	_, err = repo.FindActiveByID(ctx, inactive.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListActivePaginationClampsPastEnd(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateTestProduct(t, conn, testProductOpts{stock: 1})
	}
	mustCreateTestProduct(t, conn, testProductOpts{stock: 1, inactive: true})

	result, err := repo.ListActive(ctx, ListQuery{
		Pagination: pagination.Params{Page: 99, Limit: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.Page.TotalCount, "inactive rows must not count")
	assert.Equal(t, 3, result.Page.TotalPages)
	assert.Equal(t, 3, result.Page.CurrentPage, "page past the end adjusts down")
	assert.Len(t, result.Products, 1)
}

func TestListActiveEmptyCatalogReportsOnePage(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	result, err := repo.ListActive(context.Background(), ListQuery{
		Pagination: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Page.TotalCount)
	assert.Equal(t, 1, result.Page.TotalPages)
	assert.Empty(t, result.Products)
}

func TestListActiveCategoryFilterAndPriceSort(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	books := enums.ProductCategoryBooks
	food := enums.ProductCategoryFood
	cheap := mustCreateTestProduct(t, conn, testProductOpts{name: "cheap", price: "3.00", stock: 1, category: &books})
	pricey := mustCreateTestProduct(t, conn, testProductOpts{name: "pricey", price: "30.00", stock: 1, category: &books})
	mustCreateTestProduct(t, conn, testProductOpts{name: "snack", price: "1.00", stock: 1, category: &food})

	result, err := repo.ListActive(ctx, ListQuery{
		Pagination: pagination.Params{Page: 1, Limit: 10},
		Category:   &books,
		Sort:       enums.ProductSortPriceAsc,
	})
	require.NoError(t, err)

	require.Len(t, result.Products, 2)
	assert.Equal(t, cheap.ID, result.Products[0].ID)
	assert.Equal(t, pricey.ID, result.Products[1].ID)
}

func TestSoldQuantitiesRanksAndBreaksTiesByID(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	a := mustCreateTestProduct(t, conn, testProductOpts{name: "a", stock: 10})
	b := mustCreateTestProduct(t, conn, testProductOpts{name: "b", stock: 10})
	c := mustCreateTestProduct(t, conn, testProductOpts{name: "c", stock: 10})
	retired := mustCreateTestProduct(t, conn, testProductOpts{name: "retired", stock: 10, inactive: true})

	mustCreateOrderWithItem(t, conn, a.ID, a.Name, 2)
	mustCreateOrderWithItem(t, conn, b.ID, b.Name, 5)
	mustCreateOrderWithItem(t, conn, c.ID, c.Name, 2)
	mustCreateOrderWithItem(t, conn, retired.ID, retired.Name, 50)

	rows, err := repo.SoldQuantities(ctx)
	require.NoError(t, err)

	require.Len(t, rows, 3, "inactive products drop out of the ranking")
	assert.Equal(t, b.ID, rows[0].ProductID)
	assert.Equal(t, int64(5), rows[0].Sold)

	// a and c are tied at 2; the lower id wins
	tied := []SoldQuantity{rows[1], rows[2]}
	assert.Equal(t, int64(2), tied[0].Sold)
	assert.Equal(t, int64(2), tied[1].Sold)
	assert.True(t, tied[0].ProductID.String() < tied[1].ProductID.String())
}

func TestDecrementStockGuard(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := mustCreateTestProduct(t, conn, testProductOpts{stock: 3})

	affected, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// only 1 left now; taking 2 must not go negative
	affected, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	reloaded, err := repo.FindActiveByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.StockQuantity)
}

func TestListActiveByRecencyExcludes(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := mustCreateTestProduct(t, conn, testProductOpts{stock: 1})
	second := mustCreateTestProduct(t, conn, testProductOpts{stock: 1})

	rows, err := repo.ListActiveByRecency(ctx, 0, []uuid.UUID{first.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
}

func TestCreateInactiveProductStoresFlag(t *testing.T) {
	conn := openTestDB(t)

	product := mustCreateTestProduct(t, conn, testProductOpts{stock: 3, inactive: true})

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", product.ID).Error)
	assert.False(t, stored.IsActive, "an inactive create must not come back active")
}
