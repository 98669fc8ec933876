package product

import (
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// 商品领域错误
var (
	ErrProductNotFound   = apperrors.New(apperrors.ErrCodeProductNotFound, "product not found")
	ErrSlugDuplicate     = apperrors.New(apperrors.ErrCodeSlugDuplicate, "product slug already exists")
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "insufficient stock")
	ErrInvalidName       = apperrors.New(apperrors.ErrCodeInvalidParams, "product name must be 1-200 characters")
	ErrInvalidSlug       = apperrors.New(apperrors.ErrCodeInvalidParams, "product slug may only contain lowercase letters, digits and hyphens")
	ErrInvalidPrice      = apperrors.New(apperrors.ErrCodeInvalidParams, "price must be greater than 0")
	ErrInvalidStock      = apperrors.New(apperrors.ErrCodeInvalidParams, "stock must not be negative")
	ErrInvalidQuantity   = apperrors.New(apperrors.ErrCodeInvalidParams, "quantity must be greater than 0")
)

// NotFoundError 带商品ID的不存在错误
func NotFoundError(id string) error {
	return apperrors.Newf(apperrors.ErrCodeProductNotFound, "product %s not found", id)
}

// InsufficientStockError 库存不足，提示商品名和可用数量
func InsufficientStockError(name string, available int) error {
	return apperrors.Newf(apperrors.ErrCodeInsufficientStock,
		"insufficient stock for %s: only %d available", name, available)
}
