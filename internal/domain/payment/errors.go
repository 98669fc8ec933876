package payment

import (
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

var (
	ErrPaymentNotFound = apperrors.New(apperrors.ErrCodePaymentNotFound, "payment not found")

	// ErrDuplicateEvent 同一(reference, event)已处理过
	ErrDuplicateEvent = apperrors.New(apperrors.ErrCodeDuplicateEntry, "payment event already processed")

	ErrAmountMismatch = apperrors.New(apperrors.ErrCodePaymentAmountInvalid, "paid amount does not match the order total")

	ErrOrderNotPayable = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "only orders awaiting payment can be paid")

	ErrMalformedEvent = apperrors.New(apperrors.ErrCodeInvalidParams, "malformed webhook payload")

	ErrGatewayUnavailable = apperrors.New(apperrors.ErrCodePaymentGateway, "payment provider is unavailable, please try again shortly")
)
