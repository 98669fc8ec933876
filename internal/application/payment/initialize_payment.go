// Package payment 发起支付与处理网关回调
package payment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/tracing"
)

// InitializePaymentUseCase 为待支付订单发起支付
type InitializePaymentUseCase struct {
	orders      order.Repository
	payments    payment.Repository
	gateway     payment.Gateway
	callbackURL string
	logger      *zap.Logger
}

// NewInitializePaymentUseCase 创建发起支付用例
func NewInitializePaymentUseCase(
	orders order.Repository,
	payments payment.Repository,
	gateway payment.Gateway,
	callbackURL string,
	logger *zap.Logger,
) *InitializePaymentUseCase {
	return &InitializePaymentUseCase{
		orders:      orders,
		payments:    payments,
		gateway:     gateway,
		callbackURL: callbackURL,
		logger:      logger.Named("payment"),
	}
}

// InitializePaymentRequest 发起支付请求
type InitializePaymentRequest struct {
	UserID  string
	Email   string
	OrderID string
}

// InitializePaymentResponse 跳转到网关支付页所需信息
type InitializePaymentResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	AmountKobo       int64  `json:"amount_kobo"`
}

// Execute 校验订单归属和状态后调用网关，金额以订单总额为准（kobo）
func (uc *InitializePaymentUseCase) Execute(ctx context.Context, req InitializePaymentRequest) (resp *InitializePaymentResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "payment.initialize", attribute.String("order.id", req.OrderID))
	defer func() { tracing.End(span, err) }()

	o, err := uc.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(req.UserID) {
		return nil, order.ErrOrderNotFound
	}
	if o.Status != order.StatusPending {
		return nil, payment.ErrOrderNotPayable
	}

	email := o.Email
	if email == "" {
		email = req.Email
	}
	reference := payment.NewReference()
	result, err := uc.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       email,
		AmountKobo:  o.AmountKobo(),
		Reference:   reference,
		CallbackURL: uc.callbackURL,
		Metadata:    map[string]string{"orderId": o.ID, "orderNo": o.OrderNo},
	})
	metrics.PaymentGatewayRequestsTotal.WithLabelValues("initialize", metrics.Result(err)).Inc()
	if err != nil {
		uc.logger.Error("发起支付失败", zap.String("order_no", o.OrderNo), zap.Error(err))
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Upstream(err, "payment provider request failed")
	}
	if result.Reference != "" {
		reference = result.Reference
	}

	p := payment.NewPayment(reference, o.ID, req.UserID, o.AmountKobo(), result.AuthorizationURL)
	if err := uc.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("发起支付", zap.String("order_no", o.OrderNo), zap.String("reference", reference))
	return &InitializePaymentResponse{
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		AmountKobo:       p.AmountKobo,
	}, nil
}
