package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/storefront-backend/internal/products"
	"github.com/minsukang/storefront-backend/pkg/config"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
)

// fakeBadgeCache is an in-memory stand-in with the same miss semantics as the
// real client (redis.Nil on absent keys).
type fakeBadgeCache struct {
	values map[string]string
	gets   int
	dels   int
}

func newFakeBadgeCache() *fakeBadgeCache {
	return &fakeBadgeCache{values: map[string]string{}}
}

func (f *fakeBadgeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeBadgeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeBadgeCache) Del(_ context.Context, keys ...string) error {
	f.dels++
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeBadgeCache) CounterKey(parts ...string) string {
	key := "counter"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func newTestService(t *testing.T, cache badgeCache) (Service, *Repository) {
	t.Helper()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	catalog := products.NewRepository(conn)
	cfg := config.CartConfig{BadgeCacheTTL: 30 * time.Second}

	svc, err := NewService(repo, catalog, cache, cfg, testLogger())
	require.NoError(t, err)
	return svc, repo
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestAddItemMergesUpToStock(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateTestProduct(t, repo.db, "lamp", "19.90", 5, true)

	resp, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Quantity)
	assert.Equal(t, "59.70", resp.LineTotal.StringFixed(2))

	resp, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Quantity, "second add merges into the same row")

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, err.Error(), "only 5 in stock, requested 6")
}

func TestAddItemOutOfStock(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	product := mustCreateTestProduct(t, repo.db, "soldout", "19.90", 0, true)

	_, err := svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: product.ID, Quantity: 1})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, err.Error(), "product is out of stock")
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddItemRequiresLogin(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.AddItem(context.Background(), uuid.Nil, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestUpdateItemCapsAtStock(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateTestProduct(t, repo.db, "mug", "4.50", 3, true)
	row := mustAddCartRow(t, repo.db, userID, product.ID, 1)

	resp, err := svc.UpdateItem(ctx, userID, row.ID, UpdateItemInput{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Quantity)

	_, err = svc.UpdateItem(ctx, userID, row.ID, UpdateItemInput{Quantity: 4})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateItemGoneRowIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.UpdateItem(context.Background(), uuid.New(), uuid.New(), UpdateItemInput{Quantity: 1})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemInactiveProduct(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateTestProduct(t, repo.db, "sunset", "4.50", 3, true)
	row := mustAddCartRow(t, repo.db, userID, product.ID, 1)

	require.NoError(t, repo.db.Model(product).Update("is_active", false).Error)

	_, err := svc.UpdateItem(ctx, userID, row.ID, UpdateItemInput{Quantity: 2})
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, err.Error(), "no longer available")
}

func TestRemoveItemMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)

	err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCountUsesAndInvalidatesBadgeCache(t *testing.T) {
	cache := newFakeBadgeCache()
	svc, repo := newTestService(t, cache)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateTestProduct(t, repo.db, "badge", "4.50", 10, true)

	count, err := svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The miss above populated the cache; a second count is served from it.
	preGets := cache.gets
	count, err = svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, preGets+1, cache.gets)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.dels, "mutation drops the cached badge")

	count, err = svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "recount after invalidation sees the new row")
}

func TestCountWithoutCache(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateTestProduct(t, repo.db, "plain", "4.50", 10, true)
	mustAddCartRow(t, repo.db, userID, product.ID, 2)

	count, err := svc.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetCartSummarizesRows(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	a := mustCreateTestProduct(t, repo.db, "alpha", "10.00", 10, true)
	b := mustCreateTestProduct(t, repo.db, "beta", "2.50", 10, true)
	mustAddCartRow(t, repo.db, userID, a.ID, 2)
	mustAddCartRow(t, repo.db, userID, b.ID, 4)

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 6, cart.Summary.TotalItems)
	assert.Equal(t, "30.00", cart.Summary.TotalAmount.StringFixed(2))
	assert.True(t, cart.Summary.ShippingFee.IsZero())
	assert.Equal(t, "30.00", cart.Summary.GrandTotal.StringFixed(2))
}

func TestClearCartEmptyIsFine(t *testing.T) {
	cache := newFakeBadgeCache()
	svc, _ := newTestService(t, cache)

	require.NoError(t, svc.ClearCart(context.Background(), uuid.New()))
	assert.Equal(t, 1, cache.dels)
}
