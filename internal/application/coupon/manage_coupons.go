package coupon

import (
	"context"
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
)

// ManageCouponsUseCase 管理端优惠券维护
// usedCount只能由下单核销修改，这里不暴露
type ManageCouponsUseCase struct {
	repo coupon.Repository
}

// NewManageCouponsUseCase 创建管理端用例
func NewManageCouponsUseCase(repo coupon.Repository) *ManageCouponsUseCase {
	return &ManageCouponsUseCase{repo: repo}
}

// CreateCouponRequest 创建请求
type CreateCouponRequest struct {
	Code        string
	Type        string
	Value       int64
	Active      bool
	StartsAt    *time.Time
	EndsAt      *time.Time
	MaxUses     *int
	MinSubtotal *int64
}

// UpdateCouponRequest 修改请求（整体覆盖可编辑字段）
type UpdateCouponRequest struct {
	ID          string
	Active      bool
	Value       int64
	StartsAt    *time.Time
	EndsAt      *time.Time
	MaxUses     *int
	MinSubtotal *int64
}

// CouponDTO 优惠券
type CouponDTO struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       int64      `json:"value"`
	Active      bool       `json:"active"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	MaxUses     *int       `json:"max_uses"`
	UsedCount   int        `json:"used_count"`
	MinSubtotal *int64     `json:"min_subtotal"`
}

// ListCouponsResponse 分页
type ListCouponsResponse struct {
	List     []CouponDTO `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func toDTO(c *coupon.Coupon) CouponDTO {
	return CouponDTO{
		ID:          c.ID,
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value,
		Active:      c.Active,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		MaxUses:     c.MaxUses,
		UsedCount:   c.UsedCount,
		MinSubtotal: c.MinSubtotal,
	}
}

// Create 创建优惠券，券码统一大写且唯一
func (uc *ManageCouponsUseCase) Create(ctx context.Context, req CreateCouponRequest) (*CouponDTO, error) {
	c, err := coupon.NewCoupon(req.Code, coupon.Type(req.Type), req.Value)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Active, req.Value, req.StartsAt, req.EndsAt, req.MaxUses, req.MinSubtotal); err != nil {
		return nil, err
	}

	if existing, err := uc.repo.FindByCode(ctx, c.Code); err == nil && existing != nil {
		return nil, coupon.ErrCodeDuplicate
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	dto := toDTO(c)
	return &dto, nil
}

// Update 修改优惠券
func (uc *ManageCouponsUseCase) Update(ctx context.Context, req UpdateCouponRequest) (*CouponDTO, error) {
	c, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Active, req.Value, req.StartsAt, req.EndsAt, req.MaxUses, req.MinSubtotal); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	dto := toDTO(c)
	return &dto, nil
}

// List 分页列表
func (uc *ManageCouponsUseCase) List(ctx context.Context, page, pageSize int) (*ListCouponsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, total, err := uc.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	list := make([]CouponDTO, len(items))
	for i, c := range items {
		list[i] = toDTO(c)
	}
	return &ListCouponsResponse{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}
