package order

import (
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

var (
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "order not found")

	ErrEmptyOrder = apperrors.New(apperrors.ErrCodeInvalidParams, "order must contain at least one item")

	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "item quantity must be at least 1")

	ErrInvalidAddress = apperrors.New(apperrors.ErrCodeInvalidParams, "address line, city, state and phone are required")

	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "unknown order status")

	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "order status transition is not allowed")

	// ErrStatusConflict CAS更新时状态已被其他请求修改
	ErrStatusConflict = apperrors.New(apperrors.ErrCodeOrderStatusConflict, "order status was changed by another request, reload and retry")

	ErrTotalMismatch = apperrors.New(apperrors.ErrCodeTotalMismatch, "prices have changed since you loaded the page, please refresh and try again")

	ErrGiftMessageTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "gift message must be at most 250 characters")
)

// NewInvalidTransitionError 带上from/to的状态流转错误
func NewInvalidTransitionError(from, to Status) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidOrderStatus,
		"cannot change order status from %s to %s", from, to)
}

// QuantityTooLargeError 单个商品件数超过上限
func QuantityTooLargeError(max int) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidParams, "item quantity must be at most %d", max)
}
