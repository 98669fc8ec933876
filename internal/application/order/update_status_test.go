package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/application/notify"
	"github.com/xiebiao/perfumestore/internal/domain/mail/mock"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/testutil/memory"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// placeOrder 直接写入一个订单（库存已按下单扣过）
func (f *fixture) placeOrder(userID string, status order.Status, p *product.Product, qty int) *order.Order {
	items := []order.Item{{ProductID: p.ID, ProductName: p.Name, Quantity: qty, PriceNGN: p.PriceNGN}}
	totals := pricing.ComputeTotals([]pricing.Line{{PriceNGN: p.PriceNGN, Quantity: qty}}, 0, 1000)
	o := order.NewOrder(order.GenerateOrderNo(), userID, "ada@example.com", items, totals, nil, lagos, order.Gift{})
	o.Status = status
	f.store.PutOrder(o)
	return o
}

func TestUpdateOrderStatus_Forward(t *testing.T) {
	f := newFixture(t)
	p := f.product("Oud Royale", 10000, 5)
	o := f.placeOrder("u-1", order.StatusPending, p, 1)

	for _, next := range []string{"paid", "SHIPPED", "Delivered"} {
		_, err := f.status.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: o.ID, NewStatus: next})
		require.NoError(t, err, next)
	}

	got, err := f.store.Orders().FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, got.Status)
	assert.Equal(t, []string{"PENDING->PAID", "PAID->SHIPPED", "SHIPPED->DELIVERED"}, f.notifier.changed)
	assert.Equal(t, 5, f.store.Product(p.ID).Stock, "非取消不影响库存")
}

func TestUpdateOrderStatus_Rejected(t *testing.T) {
	f := newFixture(t)
	p := f.product("Oud Royale", 10000, 5)

	tests := []struct {
		name   string
		from   order.Status
		target string
		want   error
	}{
		{"未知状态", order.StatusPending, "REFUNDED", order.ErrInvalidStatus},
		{"跳步", order.StatusPending, "SHIPPED", order.ErrInvalidStatusTransition},
		{"后退", order.StatusShipped, "PAID", order.ErrInvalidStatusTransition},
		{"原地", order.StatusPaid, "PAID", order.ErrInvalidStatusTransition},
		{"终态不能取消", order.StatusDelivered, "CANCELLED", order.ErrInvalidStatusTransition},
		{"已取消不能恢复", order.StatusCancelled, "PENDING", order.ErrInvalidStatusTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := f.placeOrder("u-1", tt.from, p, 1)
			_, err := f.status.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: o.ID, NewStatus: tt.target})
			assert.ErrorIs(t, err, tt.want)

			got, err := f.store.Orders().FindByID(context.Background(), o.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.from, got.Status, "状态不应改变")
		})
	}
	assert.Empty(t, f.notifier.changed)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.status.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: "missing", NewStatus: "PAID"})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// staleOrderRepo FindByID返回并发修改之前读到的状态
type staleOrderRepo struct {
	order.Repository
	statusAtRead order.Status
}

func (r staleOrderRepo) FindByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = r.statusAtRead
	return o, nil
}

func TestUpdateOrderStatus_ConcurrentChange(t *testing.T) {
	f := newFixture(t)
	p := f.product("Oud Royale", 10000, 5)
	// 读到PAID，写入前已被另一个请求改成CANCELLED
	o := f.placeOrder("u-1", order.StatusCancelled, p, 1)
	uc := NewUpdateOrderStatusUseCase(staleOrderRepo{Repository: f.store.Orders(), statusAtRead: order.StatusPaid},
		f.store.Products(), f.store, f.notifier, zap.NewNop())

	_, err := uc.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: o.ID, NewStatus: "SHIPPED"})

	assert.ErrorIs(t, err, order.ErrStatusConflict)
	assert.NotErrorIs(t, err, order.ErrInvalidStatusTransition)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStateConflict))

	got, err := f.store.Orders().FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Empty(t, f.notifier.changed)
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	f := newFixture(t)
	p := f.product("Amber Nights", 8000, 3)
	o := f.placeOrder("u-1", order.StatusPaid, p, 2)

	dto, err := f.status.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: o.ID, NewStatus: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", dto.Status)
	assert.Equal(t, 5, f.store.Product(p.ID).Stock)
}

func TestUpdateOrderStatus_SideEffectFailuresIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mock.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	store := memory.NewStore()
	store.Fail["notification.create"] = apperrors.ErrDatabaseError
	dispatcher := notify.NewDispatcher(sender, store.Notifications(), zap.NewNop())
	uc := NewUpdateOrderStatusUseCase(store.Orders(), store.Products(), store, dispatcher, zap.NewNop())

	f := &fixture{store: store}
	p := f.product("Oud Royale", 10000, 5)
	o := f.placeOrder("u-1", order.StatusPending, p, 1)

	dto, err := uc.Execute(context.Background(), UpdateOrderStatusCommand{OrderID: o.ID, NewStatus: "PAID"})
	require.NoError(t, err, "通知失败不影响状态修改结果")
	assert.Equal(t, "PAID", dto.Status)
	assert.Empty(t, store.AllNotifications())
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	p := f.product("Oud Royale", 10000, 5)
	mine := f.placeOrder("u-1", order.StatusPending, p, 1)
	f.placeOrder("u-1", order.StatusPaid, p, 1)
	other := f.placeOrder("u-2", order.StatusPaid, p, 1)

	t.Run("查看自己的订单", func(t *testing.T) {
		dto, err := f.query.GetForUser(context.Background(), "u-1", mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.OrderNo, dto.OrderNo)
		assert.Equal(t, int64(11000), dto.TotalNGN)
		assert.Equal(t, int64(10000), dto.Items[0].LineTotalNGN)
	})

	t.Run("别人的订单按不存在处理", func(t *testing.T) {
		_, err := f.query.GetForUser(context.Background(), "u-1", other.ID)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("我的订单列表", func(t *testing.T) {
		resp, err := f.query.ListForUser(context.Background(), "u-1", ListOrdersRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 20, resp.PageSize)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("管理端按状态过滤", func(t *testing.T) {
		resp, err := f.query.ListAll(context.Background(), ListOrdersRequest{Status: "paid", PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		assert.Len(t, resp.List, 1)
		assert.Equal(t, 2, resp.TotalPages)
	})

	t.Run("管理端非法状态", func(t *testing.T) {
		_, err := f.query.ListAll(context.Background(), ListOrdersRequest{Status: "lost"})
		assert.ErrorIs(t, err, order.ErrInvalidStatus)
	})
}
