package product

import (
	"context"
)

// Repository 商品仓储接口(由infrastructure实现)
type Repository interface {
	Create(ctx context.Context, p *Product) error

	// FindByID 查询未下架商品，不存在返回ErrProductNotFound
	FindByID(ctx context.Context, id string) (*Product, error)

	FindBySlug(ctx context.Context, slug string) (*Product, error)

	Update(ctx context.Context, p *Product) error

	// Delete 软删除
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, params ListParams) ([]*Product, int64, error)

	// FindActiveByIDs 批量查询未下架商品，缺失的ID直接不返回（购物车汇总用）
	FindActiveByIDs(ctx context.Context, ids []string) ([]*Product, error)

	// LockActiveByIDs 批量锁定未下架商品（SELECT ... FOR UPDATE）
	// 必须在事务内调用；缺失的ID不返回，由调用方判断
	LockActiveByIDs(ctx context.Context, ids []string) ([]*Product, error)

	// DecrementStock 条件扣减：stock >= quantity 时才扣
	// 不满足返回ErrInsufficientStock
	DecrementStock(ctx context.Context, id string, quantity int) error

	// IncrementStock 回补库存（取消订单）
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 从1开始
	PageSize int    // 每页数量
	Keyword  string // 按名称/品牌模糊搜索
	Brand    string
	SortBy   string // price_asc | price_desc | newest
}

// Normalize 修正分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}
