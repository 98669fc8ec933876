package order

import (
	"context"
)

// Repository 订单仓储接口
type Repository interface {
	// Create 保存订单和明细（同一事务）
	Create(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id string) (*Order, error)

	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*Order, int64, error)

	// List 管理端列表，status为空表示全部
	List(ctx context.Context, status Status, page, pageSize int) ([]*Order, int64, error)

	// CompareAndSetStatus 条件更新：WHERE id = ? AND status = from
	// 影响0行时返回ErrStatusConflict；paymentRef非空时一并写入
	CompareAndSetStatus(ctx context.Context, id string, from, to Status, paymentRef string) error
}
