package order

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/testutil/memory"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// recordingNotifier 记录通知调用
type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []string
}

func (n *recordingNotifier) OrderPlaced(ctx context.Context, o *order.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, o.OrderNo)
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, o *order.Order, from order.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(from)+"->"+string(o.Status))
}

type fixture struct {
	store    *memory.Store
	carts    *memory.CartStore
	notifier *recordingNotifier
	create   *CreateOrderUseCase
	status   *UpdateOrderStatusUseCase
	query    *QueryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	carts := memory.NewCartStore()
	n := &recordingNotifier{}
	shipping := pricing.NewShippingPolicy(1500, 100000, map[string]int64{"Lagos": 1000})

	create := NewCreateOrderUseCase(store.Orders(), store.Products(), store.Coupons(), carts, store, shipping, n, zap.NewNop())
	create.now = func() time.Time { return fixedNow }

	return &fixture{
		store:    store,
		carts:    carts,
		notifier: n,
		create:   create,
		status:   NewUpdateOrderStatusUseCase(store.Orders(), store.Products(), store, n, zap.NewNop()),
		query:    NewQueryUseCase(store.Orders()),
	}
}

func (f *fixture) product(name string, price int64, stock int) *product.Product {
	p := product.NewProduct(name, "", "Maison Test", price, stock, "", "")
	f.store.PutProduct(p)
	return p
}

func (f *fixture) coupon(t *testing.T, code string, typ coupon.Type, value int64, maxUses *int) *coupon.Coupon {
	t.Helper()
	c, err := coupon.NewCoupon(code, typ, value)
	require.NoError(t, err)
	c.MaxUses = maxUses
	f.store.PutCoupon(c)
	return c
}

var lagos = order.Address{Line1: "12 Admiralty Way", City: "Lekki", State: "Lagos", Phone: "08030000000"}

func request(userID string, total int64, items ...CreateOrderItem) CreateOrderRequest {
	return CreateOrderRequest{
		UserID:   userID,
		Email:    "ada@example.com",
		Address:  lagos,
		Items:    items,
		TotalNGN: total,
	}
}

func intPtr(v int) *int { return &v }

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(t)
	p := f.product("Oud Royale", 10000, 5)
	require.NoError(t, f.carts.Save(context.Background(), "sid-1", []cart.Item{{ProductID: p.ID, Quantity: 2}}))

	req := request("u-1", 21000, CreateOrderItem{ProductID: p.ID, Quantity: 2, PriceNGN: 10000})
	req.SessionID = "sid-1"
	req.IsGift = true
	req.GiftMessage = "  Happy birthday  "

	resp, err := f.create.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, pricing.Totals{SubtotalNGN: 20000, DiscountNGN: 0, ShippingNGN: 1000, TotalNGN: 21000}, resp.Totals)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Regexp(t, `^PFM\d{20}$`, resp.OrderNo)

	assert.Equal(t, 3, f.store.Product(p.ID).Stock, "库存应扣减")
	assert.Equal(t, 1, f.store.OrderCount())

	saved, err := f.store.Orders().FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Happy birthday", saved.Gift.Message)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "Oud Royale", saved.Items[0].ProductName)
	assert.Equal(t, int64(10000), saved.Items[0].PriceNGN)

	items, err := f.carts.Load(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Empty(t, items, "下单成功后清空购物车")
	assert.Equal(t, []string{resp.OrderNo}, f.notifier.placed)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("Amber Nights", 1000, 3)

	_, err := f.create.Execute(context.Background(),
		request("u-1", 6000, CreateOrderItem{ProductID: p.ID, Quantity: 5, PriceNGN: 1000}))

	require.Error(t, err)
	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Amber Nights")
	assert.Contains(t, err.Error(), "only 3 available")
	assert.True(t, apperrors.IsKind(err, apperrors.KindStateConflict))
	assert.Equal(t, 0, f.store.OrderCount(), "不应写入订单")
	assert.Equal(t, 3, f.store.Product(p.ID).Stock)
	assert.Empty(t, f.notifier.placed)
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	f := newFixture(t)
	f.create.shipping = pricing.ShippingPolicy{}
	p := f.product("Cedar Mist", 10000, 10)

	_, err := f.create.Execute(context.Background(),
		request("u-1", 9000, CreateOrderItem{ProductID: p.ID, Quantity: 1, PriceNGN: 9000}))

	assert.ErrorIs(t, err, order.ErrTotalMismatch)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 10, f.store.Product(p.ID).Stock)
}

func TestCreateOrder_ClientPriceIgnored(t *testing.T) {
	f := newFixture(t)
	p := f.product("Vetiver Blue", 8000, 10)

	// 客户端价格被篡改，但合计按服务端价格提交
	resp, err := f.create.Execute(context.Background(),
		request("u-1", 9000, CreateOrderItem{ProductID: p.ID, Quantity: 1, PriceNGN: 1}))
	require.NoError(t, err)

	saved, err := f.store.Orders().FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), saved.Items[0].PriceNGN)
	assert.Equal(t, int64(8000), saved.SubtotalNGN)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.product("Rose Oud", 5000, 10)

	tests := []struct {
		name string
		req  CreateOrderRequest
		want error
	}{
		{"空订单", request("u-1", 0), order.ErrEmptyOrder},
		{"数量为0", request("u-1", 0, CreateOrderItem{ProductID: p.ID, Quantity: 0}), order.ErrInvalidQuantity},
		{"数量为负", request("u-1", 0, CreateOrderItem{ProductID: p.ID, Quantity: -1}), order.ErrInvalidQuantity},
		{"缺少地址", CreateOrderRequest{UserID: "u-1", Items: []CreateOrderItem{{ProductID: p.ID, Quantity: 1}}}, order.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}

	t.Run("单行数量超过上限", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(), request("u-1", 0, CreateOrderItem{ProductID: p.ID, Quantity: math.MaxInt}))
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.Contains(t, err.Error(), "at most 1000")
	})

	t.Run("重复行合并后超过上限", func(t *testing.T) {
		req := request("u-1", 0,
			CreateOrderItem{ProductID: p.ID, Quantity: 600},
			CreateOrderItem{ProductID: p.ID, Quantity: 600},
		)
		_, err := f.create.Execute(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.Contains(t, err.Error(), "at most 1000")
		assert.Equal(t, 10, f.store.Product(p.ID).Stock)
	})

	t.Run("礼品留言过长", func(t *testing.T) {
		req := request("u-1", 6000, CreateOrderItem{ProductID: p.ID, Quantity: 1})
		msg := make([]rune, 251)
		for i := range msg {
			msg[i] = 'a'
		}
		req.GiftMessage = string(msg)
		_, err := f.create.Execute(context.Background(), req)
		assert.ErrorIs(t, err, order.ErrGiftMessageTooLong)
	})

	assert.Equal(t, 0, f.store.OrderCount())
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	deleted := f.product("Discontinued", 5000, 10)
	require.NoError(t, f.store.Products().Delete(context.Background(), deleted.ID))

	t.Run("不存在的商品", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(),
			request("u-1", 6500, CreateOrderItem{ProductID: "0b0c4f43-4d52-4a3c-a3a5-7d4b2f1b9e11", Quantity: 1}))
		assert.ErrorIs(t, err, product.ErrProductNotFound)
		assert.Contains(t, err.Error(), "0b0c4f43-4d52-4a3c-a3a5-7d4b2f1b9e11")
	})

	t.Run("已下架的商品", func(t *testing.T) {
		_, err := f.create.Execute(context.Background(),
			request("u-1", 6000, CreateOrderItem{ProductID: deleted.ID, Quantity: 1}))
		assert.ErrorIs(t, err, product.ErrProductNotFound)
	})
}

func TestCreateOrder_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)
	p := f.product("Musk Noir", 4000, 1)

	// 两行各1件，合并后2件超过库存
	_, err := f.create.Execute(context.Background(), request("u-1", 9000,
		CreateOrderItem{ProductID: p.ID, Quantity: 1},
		CreateOrderItem{ProductID: p.ID, Quantity: 1},
	))
	assert.ErrorIs(t, err, product.ErrInsufficientStock)

	f.store.PutProduct(&product.Product{ID: p.ID, Name: p.Name, Slug: p.Slug, PriceNGN: 4000, Stock: 5})
	resp, err := f.create.Execute(context.Background(), request("u-1", 9000,
		CreateOrderItem{ProductID: p.ID, Quantity: 1},
		CreateOrderItem{ProductID: p.ID, Quantity: 1},
	))
	require.NoError(t, err)
	saved, err := f.store.Orders().FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, 2, saved.Items[0].Quantity)
	assert.Equal(t, 3, f.store.Product(p.ID).Stock)
}

func TestCreateOrder_WithCoupon(t *testing.T) {
	f := newFixture(t)
	p := f.product("Santal Gold", 25000, 10)
	c := f.coupon(t, "save10", coupon.TypePercent, 10, intPtr(5))

	// 小计50000，九折5000，运费1000
	req := request("u-1", 46000, CreateOrderItem{ProductID: p.ID, Quantity: 2})
	req.CouponID = c.ID
	req.DiscountNGN = 5000

	resp, err := f.create.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), resp.Totals.DiscountNGN)
	assert.Equal(t, 1, f.store.Coupon(c.ID).UsedCount)

	saved, err := f.store.Orders().FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, saved.CouponID)
	assert.Equal(t, c.ID, *saved.CouponID)
}

func TestCreateOrder_CouponRejectedServerSide(t *testing.T) {
	f := newFixture(t)
	p := f.product("Fig Leaf", 20000, 10)
	c := f.coupon(t, "GONE", coupon.TypeFixed, 2000, nil)
	c.Active = false
	f.store.PutCoupon(c)

	req := request("u-1", 19000, CreateOrderItem{ProductID: p.ID, Quantity: 1})
	req.CouponID = c.ID
	_, err := f.create.Execute(context.Background(), req)

	assert.ErrorIs(t, err, coupon.ErrInactive)
	assert.Equal(t, 10, f.store.Product(p.ID).Stock)
	assert.Equal(t, 0, f.store.Coupon(c.ID).UsedCount)
}

func TestCreateOrder_CouponRace(t *testing.T) {
	f := newFixture(t)
	p := f.product("Jasmine Dusk", 20000, 10)
	c := f.coupon(t, "ONCE", coupon.TypeFixed, 2000, intPtr(1))

	// 两个请求都先通过了校验（无副作用）
	for i := 0; i < 2; i++ {
		_, err := c.Evaluate(fixedNow, 20000)
		require.NoError(t, err)
	}

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := request("u-race", 19000, CreateOrderItem{ProductID: p.ID, Quantity: 1})
			req.CouponID = c.ID
			_, errs[i] = f.create.Execute(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, coupon.ErrUsageLimitReached):
			rejected++
		default:
			t.Fatalf("意外的错误: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "只能有一个订单成功核销")
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, f.store.Coupon(c.ID).UsedCount, "usedCount不能超过maxUses")
	assert.Equal(t, 1, f.store.OrderCount())
	assert.Equal(t, 9, f.store.Product(p.ID).Stock, "失败的请求不能扣库存")
}

// staleCouponRepo FindByID返回另一个请求核销之前读到的快照
type staleCouponRepo struct {
	coupon.Repository
	usedCountAtRead int
}

func (r staleCouponRepo) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	c, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.UsedCount = r.usedCountAtRead
	return c, nil
}

func TestCreateOrder_CouponExhaustedAfterRead(t *testing.T) {
	f := newFixture(t)
	p := f.product("Amber Veil", 20000, 10)
	c := f.coupon(t, "LASTONE", coupon.TypeFixed, 2000, intPtr(1))

	// 校验读到usedCount=0，核销前另一个订单已用掉最后一次
	require.NoError(t, f.store.Coupons().Redeem(context.Background(), c.ID))
	coupons := staleCouponRepo{Repository: f.store.Coupons(), usedCountAtRead: 0}
	shipping := pricing.NewShippingPolicy(1500, 100000, map[string]int64{"Lagos": 1000})
	create := NewCreateOrderUseCase(f.store.Orders(), f.store.Products(), coupons, f.carts, f.store, shipping, f.notifier, zap.NewNop())
	create.now = func() time.Time { return fixedNow }

	req := request("u-late", 19000, CreateOrderItem{ProductID: p.ID, Quantity: 1})
	req.CouponID = c.ID
	_, err := create.Execute(context.Background(), req)

	assert.ErrorIs(t, err, coupon.ErrUsageLimitReached)
	assert.Equal(t, 0, f.store.OrderCount(), "事务回滚，不能留下订单")
	assert.Equal(t, 10, f.store.Product(p.ID).Stock, "事务回滚，库存不变")
	assert.Equal(t, 1, f.store.Coupon(c.ID).UsedCount)
	assert.Empty(t, f.notifier.placed)
}

func TestCreateOrder_StockRace(t *testing.T) {
	f := newFixture(t)
	p := f.product("Last Bottle", 5000, 1)

	const workers = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(),
				request("u-1", 6000, CreateOrderItem{ProductID: p.ID, Quantity: 1}))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, product.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.store.Product(p.ID).Stock)
}

func TestCreateOrder_RollbackOnPersistFailure(t *testing.T) {
	f := newFixture(t)
	p := f.product("Neroli", 3000, 4)
	c := f.coupon(t, "FLAT", coupon.TypeFixed, 500, nil)
	f.store.Fail["coupon.redeem"] = apperrors.ErrDatabaseError

	req := request("u-1", 3500, CreateOrderItem{ProductID: p.ID, Quantity: 1})
	req.CouponID = c.ID
	_, err := f.create.Execute(context.Background(), req)

	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.Equal(t, 0, f.store.OrderCount(), "订单写入应回滚")
	assert.Equal(t, 4, f.store.Product(p.ID).Stock, "库存扣减应回滚")
	assert.Equal(t, 0, f.store.Coupon(c.ID).UsedCount)
	assert.Empty(t, f.notifier.placed)
}
