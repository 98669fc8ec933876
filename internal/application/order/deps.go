package order

import (
	"context"

	"github.com/xiebiao/perfumestore/internal/domain/order"
)

// Transactor 事务执行器，fn内使用传入的ctx访问仓储即处于同一事务
// 生产实现是mysql.TxManager
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 订单事件通知（事务提交后调用，尽力而为）
type Notifier interface {
	OrderPlaced(ctx context.Context, o *order.Order)
	StatusChanged(ctx context.Context, o *order.Order, from order.Status)
}
