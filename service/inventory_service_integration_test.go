package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"botshop/models"
	"botshop/repository/testutil"
	"botshop/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInventory(t *testing.T) (*testutil.TestStore, service.InventoryService) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	store.Seed(t, func(doc *models.Document) {
		doc.Users = append(doc.Users, testutil.CreateTestUser(testutil.SellerID, "seller"))
		doc.Instances = append(doc.Instances, testutil.CreateTestInstanceWithProduct("inst-1", testutil.SellerID, "vip"))
	})
	return store, service.NewInventoryService(store.UowFactory)
}

func TestAddStockKeys_KeysAreUniqueAcrossBuckets_Integration(t *testing.T) {
	ctx := context.Background()
	store, inventory := setupInventory(t)

	first, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", []string{"K1", "K2"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "shared", []string{"K1", "K3"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 1, second.Skipped())
	assert.Equal(t, 1, second.SkippedElsewhere)

	stock := store.Reload(t).Instances[0].Products[0].Stock
	assert.Equal(t, []string{"K3"}, stock["shared"])
	assert.Equal(t, []string{"K1", "K2"}, stock["default"])

	summary, err := inventory.StockSummary(ctx, "inst-1", "vip")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"default": 2, "shared": 1}, summary)
}

func TestAddStockKeys_NothingNewSkipsWrite_Integration(t *testing.T) {
	ctx := context.Background()
	store, inventory := setupInventory(t)

	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", []string{"K1"})
	require.NoError(t, err)
	before := store.Reload(t).Instances[0].Products[0].UpdatedAt

	result, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", []string{"K1", " ", ""})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.SkippedInBucket)
	assert.Equal(t, 1, result.BucketSize)

	assert.Equal(t, before, store.Reload(t).Instances[0].Products[0].UpdatedAt)
}

func TestAddStockKeys_Errors_Integration(t *testing.T) {
	ctx := context.Background()
	_, inventory := setupInventory(t)

	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "  ", []string{"K1"})
	assert.ErrorIs(t, err, service.ErrBucketRequired)
	_, err = inventory.AddStockKeys(ctx, "missing", "vip", "default", []string{"K1"})
	assert.ErrorIs(t, err, service.ErrInstanceNotFound)
	_, err = inventory.AddStockKeys(ctx, "inst-1", "missing", "default", []string{"K1"})
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestConsumeKey_OldestFirst_Integration(t *testing.T) {
	ctx := context.Background()
	store, inventory := setupInventory(t)

	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "monthly", []string{"K1", "K2"})
	require.NoError(t, err)
	_, err = inventory.AddStockKeys(ctx, "inst-1", "vip", "monthly", []string{"K3"})
	require.NoError(t, err)

	for _, want := range []string{"K1", "K2", "K3"} {
		key, err := inventory.ConsumeKey(ctx, "inst-1", "vip", "monthly")
		require.NoError(t, err)
		assert.Equal(t, want, key)
	}

	_, err = inventory.ConsumeKey(ctx, "inst-1", "vip", "monthly")
	assert.ErrorIs(t, err, service.ErrStockEmpty)
	assert.Equal(t, "stock_empty", service.ErrorCode(err))

	assert.Empty(t, store.Reload(t).Instances[0].Products[0].Stock["monthly"])
}

func TestConsumeKey_ConcurrentConsumersNeverShareAKey_Integration(t *testing.T) {
	ctx := context.Background()
	_, inventory := setupInventory(t)

	keys := make([]string, 25)
	for i := range keys {
		keys[i] = fmt.Sprintf("KEY-%02d", i)
	}
	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", keys)
	require.NoError(t, err)

	const consumers = 40
	var mu sync.Mutex
	var wg sync.WaitGroup
	delivered := map[string]int{}
	empty := 0
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := inventory.ConsumeKey(ctx, "inst-1", "vip", "default")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, service.ErrStockEmpty)
				empty++
				return
			}
			delivered[key]++
		}()
	}
	wg.Wait()

	assert.Len(t, delivered, 25)
	for key, n := range delivered {
		assert.Equal(t, 1, n, "key %s delivered more than once", key)
	}
	assert.Equal(t, consumers-25, empty)
}

func TestClearBucket_Integration(t *testing.T) {
	ctx := context.Background()
	store, inventory := setupInventory(t)

	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", []string{"K1", "K2"})
	require.NoError(t, err)
	_, err = inventory.AddStockKeys(ctx, "inst-1", "vip", "monthly", []string{"K3"})
	require.NoError(t, err)

	removed, err := inventory.ClearBucket(ctx, "inst-1", "vip", "default")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stock := store.Reload(t).Instances[0].Products[0].Stock
	assert.Empty(t, stock["default"])
	assert.Equal(t, []string{"K3"}, stock["monthly"])

	// Cleared keys can be stocked again in another bucket
	result, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "monthly", []string{"K1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)

	removed, err = inventory.ClearBucket(ctx, "inst-1", "vip", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestDeleteProduct_DropsStock_Integration(t *testing.T) {
	ctx := context.Background()
	store, inventory := setupInventory(t)
	catalog := service.NewCatalogService(store.UowFactory)

	_, err := inventory.AddStockKeys(ctx, "inst-1", "vip", "default", []string{"K1"})
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteProduct(ctx, "inst-1", "vip"))

	_, err = inventory.ConsumeKey(ctx, "inst-1", "vip", "default")
	assert.ErrorIs(t, err, service.ErrProductNotFound)
	_, err = inventory.StockSummary(ctx, "inst-1", "vip")
	assert.ErrorIs(t, err, service.ErrProductNotFound)

	// A recreated product starts with empty stock
	_, err = catalog.CreateProduct(ctx, "inst-1", service.ProductInput{ID: "vip", Name: "VIP"})
	require.NoError(t, err)
	summary, err := inventory.StockSummary(ctx, "inst-1", "vip")
	require.NoError(t, err)
	assert.Empty(t, summary)
}
