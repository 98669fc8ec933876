package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/response"
)

const (
	signatureHeader = "x-paystack-signature"
	maxWebhookBody  = 1 << 20
)

// PaymentHandler 支付网关回调
type PaymentHandler struct {
	webhookUseCase *apppayment.HandleWebhookUseCase
}

// NewPaymentHandler 创建支付回调处理器
func NewPaymentHandler(webhookUseCase *apppayment.HandleWebhookUseCase) *PaymentHandler {
	return &PaymentHandler{webhookUseCase: webhookUseCase}
}

// Webhook 支付网关回调
// 签名针对原始请求体计算，必须在任何JSON解析之前读取body
//
//   - 签名不合法：401
//   - 内部错误（数据库等）：500，网关会重试
//   - 业务错误（金额不符、订单已取消）：200+业务码，重试没有意义
//
// @Summary      支付回调
// @Tags         支付
// @Accept       json
// @Produce      json
// @Param        x-paystack-signature header string true "HMAC-SHA512签名"
// @Success      200 {object} response.Response{data=apppayment.WebhookResult}
// @Failure      401 {object} response.Response "签名不合法"
// @Router       /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "failed to read request body")
		return
	}

	result, err := h.webhookUseCase.Execute(c.Request.Context(), body, c.GetHeader(signatureHeader))
	switch {
	case err == nil:
		response.Success(c, result)
	case errors.Is(err, apperrors.ErrInvalidSignature):
		response.ErrorWithStatus(c, http.StatusUnauthorized, err)
	case apperrors.GetAppError(err).Kind() == apperrors.KindInternal:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err)
	default:
		response.Error(c, err)
	}
}
