package coupon

import (
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// 拒绝原因（每种原因一个独立错误码）
var (
	ErrNotFound          = apperrors.New(apperrors.ErrCodeCouponNotFound, "coupon not found")
	ErrInactive          = apperrors.New(apperrors.ErrCodeCouponInactive, "coupon is not active")
	ErrExpired           = apperrors.New(apperrors.ErrCodeCouponExpired, "coupon is not valid at this time")
	ErrUsageLimitReached = apperrors.New(apperrors.ErrCodeCouponUsageLimit, "coupon usage limit reached")
	ErrBelowMinimum      = apperrors.New(apperrors.ErrCodeCouponBelowMinimum, "order subtotal is below the coupon minimum")
)

// 管理端配置错误
var (
	ErrCodeDuplicate      = apperrors.New(apperrors.ErrCodeCouponCodeDuplicate, "coupon code already exists")
	ErrInvalidCode        = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon code must be 1-32 characters")
	ErrInvalidType        = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon type must be PERCENT or FIXED")
	ErrInvalidValue       = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon value must be positive (percent at most 100)")
	ErrInvalidWindow      = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon ends_at must not be before starts_at")
	ErrInvalidMaxUses     = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon max_uses must not be negative")
	ErrMaxUsesBelowUsed   = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon max_uses must not be below the number of times it has been used")
	ErrInvalidMinSubtotal = apperrors.New(apperrors.ErrCodeInvalidParams, "coupon min_subtotal must not be negative")
)

func newBelowMinimumError(min int64) error {
	return apperrors.Newf(apperrors.ErrCodeCouponBelowMinimum,
		"order subtotal must be at least NGN %d to use this coupon", min)
}

// Reason 拒绝原因的短名（指标标签用）
func Reason(err error) string {
	switch apperrors.GetAppError(err).Code {
	case apperrors.ErrCodeCouponNotFound:
		return "not_found"
	case apperrors.ErrCodeCouponInactive:
		return "inactive"
	case apperrors.ErrCodeCouponExpired:
		return "expired"
	case apperrors.ErrCodeCouponUsageLimit:
		return "usage_limit"
	case apperrors.ErrCodeCouponBelowMinimum:
		return "below_minimum"
	default:
		return "other"
	}
}
