package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/testutil/memory"
)

func setup(t *testing.T) (*Service, *memory.Store, *memory.CartStore) {
	t.Helper()
	store := memory.NewStore()
	carts := memory.NewCartStore()
	shipping := pricing.NewShippingPolicy(1500, 0, map[string]int64{"lagos": 1000})
	return NewService(carts, store.Products(), shipping, zap.NewNop()), store, carts
}

func TestService_AddSameProductTwice(t *testing.T) {
	svc, store, _ := setup(t)
	p := product.NewProduct("Oud Royale", "", "Maison", 10000, 5, "", "")
	store.PutProduct(p)

	_, err := svc.Add(context.Background(), "sid", p.ID, 1)
	require.NoError(t, err)
	c, err := svc.Add(context.Background(), "sid", p.ID, 1)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)

	summary, err := svc.Summary(context.Background(), "sid", "Lagos")
	require.NoError(t, err)
	assert.Equal(t, pricing.Totals{SubtotalNGN: 20000, ShippingNGN: 1000, TotalNGN: 21000}, summary.Totals)
	assert.Equal(t, 2, summary.Count)
}

func TestService_UpdateAndRemove(t *testing.T) {
	svc, _, _ := setup(t)
	id := "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90"

	c, err := svc.Add(context.Background(), "sid", id, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity, "数量<1按1处理")

	c, err = svc.Update(context.Background(), "sid", id, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c, err = svc.Update(context.Background(), "sid", id, 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty(), "数量<=0即移除")

	_, err = svc.Add(context.Background(), "sid", id, 2)
	require.NoError(t, err)
	c, err = svc.Remove(context.Background(), "sid", id)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestService_InvalidInput(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Add(context.Background(), "sid", "not-a-uuid", 1)
	assert.ErrorIs(t, err, ErrInvalidProductID)

	_, err = svc.Add(context.Background(), "", "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90", 1)
	assert.Error(t, err)
}

func TestService_CorruptCartIsEmpty(t *testing.T) {
	svc, _, carts := setup(t)
	carts.Corrupt("sid")

	c, err := svc.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	// 损坏后仍可继续使用
	c, err = svc.Add(context.Background(), "sid", "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90", 1)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestService_SanitizesOnRead(t *testing.T) {
	svc, _, carts := setup(t)
	id := "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90"
	carts.Raw("sid", []cart.Item{
		{ProductID: "", Quantity: 1},
		{ProductID: id, Quantity: 0},
		{ProductID: id, Quantity: 2},
		{ProductID: id, Quantity: 3},
	})

	c, err := svc.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, []cart.Item{{ProductID: id, Quantity: 5}}, c.Items)
}

func TestService_SummaryFiltersUnavailable(t *testing.T) {
	svc, store, _ := setup(t)
	live := product.NewProduct("Cedar Mist", "", "Maison", 7000, 3, "", "")
	gone := product.NewProduct("Old Stock", "", "Maison", 9000, 3, "", "")
	store.PutProduct(live)
	store.PutProduct(gone)
	require.NoError(t, store.Products().Delete(context.Background(), gone.ID))

	for _, id := range []string{live.ID, gone.ID, "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90"} {
		_, err := svc.Add(context.Background(), "sid", id, 1)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), "sid", "Abuja")
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, live.ID, summary.Items[0].ProductID)
	assert.Equal(t, int64(7000), summary.Totals.SubtotalNGN)
	assert.Equal(t, int64(1500), summary.Totals.ShippingNGN)
}

func TestService_ClearIsIdempotent(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Add(context.Background(), "sid", "5b1f0d4e-8c1a-4c55-9d9e-2a6e4b7c8d90", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "sid"))
	require.NoError(t, svc.Clear(context.Background(), "sid"))

	summary, err := svc.Summary(context.Background(), "sid", "")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.Totals.TotalNGN)
}
