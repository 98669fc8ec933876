package dto

import "time"

// ValidateCouponRequest 校验券码（不核销）
type ValidateCouponRequest struct {
	Code        string `json:"code" binding:"required,max=50" example:"WELCOME10"`
	SubtotalNGN int64  `json:"subtotal_ngn" binding:"min=0" example:"50000"`
}

// CreateCouponRequest 创建优惠券
// type=PERCENT时value为百分比(1-100)，FIXED时为NGN金额
type CreateCouponRequest struct {
	Code        string     `json:"code" binding:"required,max=50" example:"WELCOME10"`
	Type        string     `json:"type" binding:"required,oneof=PERCENT FIXED" example:"PERCENT"`
	Value       int64      `json:"value" binding:"required,min=1" example:"10"`
	Active      bool       `json:"active" example:"true"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	MaxUses     *int       `json:"max_uses" binding:"omitempty,min=1"`
	MinSubtotal *int64     `json:"min_subtotal" binding:"omitempty,min=0"`
}

// UpdateCouponRequest 整体覆盖可编辑字段，已使用次数不可修改
type UpdateCouponRequest struct {
	Active      bool       `json:"active"`
	Value       int64      `json:"value" binding:"required,min=1"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	MaxUses     *int       `json:"max_uses" binding:"omitempty,min=1"`
	MinSubtotal *int64     `json:"min_subtotal" binding:"omitempty,min=0"`
}
