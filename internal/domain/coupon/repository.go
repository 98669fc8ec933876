package coupon

import "context"

// Repository 优惠券仓储
type Repository interface {
	Create(ctx context.Context, c *Coupon) error

	// FindByCode code需已NormalizeCode，不存在返回ErrNotFound
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	FindByID(ctx context.Context, id string) (*Coupon, error)

	// Update 只更新管理端可改字段，不覆盖used_count
	Update(ctx context.Context, c *Coupon) error

	List(ctx context.Context, page, pageSize int) ([]*Coupon, int64, error)

	// Redeem 条件核销：used_count+1，仅当未达到max_uses
	// 影响行数为0时返回ErrUsageLimitReached
	// 必须在下单事务内调用
	Redeem(ctx context.Context, id string) error
}
