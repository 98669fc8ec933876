package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
)

// Transactor 事务执行器
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier 支付到账通知
type Notifier interface {
	PaymentReceived(ctx context.Context, o *order.Order)
}

// HandleWebhookUseCase 处理支付网关回调
type HandleWebhookUseCase struct {
	gateway  payment.Gateway
	orders   order.Repository
	payments payment.Repository
	tx       Transactor
	notifier Notifier
	logger   *zap.Logger
}

// NewHandleWebhookUseCase 创建回调处理用例
func NewHandleWebhookUseCase(
	gateway payment.Gateway,
	orders order.Repository,
	payments payment.Repository,
	tx Transactor,
	notifier Notifier,
	logger *zap.Logger,
) *HandleWebhookUseCase {
	return &HandleWebhookUseCase{
		gateway:  gateway,
		orders:   orders,
		payments: payments,
		tx:       tx,
		notifier: notifier,
		logger:   logger.Named("payment"),
	}
}

// WebhookResult 处理结果
type WebhookResult struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	Handled   bool   `json:"handled"`   // 是否改变了订单状态
	Duplicate bool   `json:"duplicate"` // 重复投递
}

var errAlreadyProcessed = errors.New("event already processed")

// Execute 验签并处理回调
//
// charge.success：去重记录、核对金额、订单PENDING->PAID、支付记录置为paid在同一事务内完成，
// 同一(reference, event)重复投递直接确认；其他事件确认后忽略。
func (uc *HandleWebhookUseCase) Execute(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	event, err := uc.gateway.ParseWebhook(body, signature)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidSignature) {
			uc.logger.Warn("支付回调签名校验失败", zap.Bool("security_event", true), zap.Int("body_size", len(body)))
			metrics.PaymentWebhookEventsTotal.WithLabelValues("unknown", "invalid_signature").Inc()
		}
		return nil, err
	}

	result := &WebhookResult{Event: event.Name, Reference: event.Reference}
	if event.Name != payment.EventChargeSuccess {
		metrics.PaymentWebhookEventsTotal.WithLabelValues(event.Name, "ignored").Inc()
		return result, nil
	}
	if event.Reference == "" {
		return nil, payment.ErrMalformedEvent
	}

	var paid *order.Order
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		err := uc.payments.RecordEvent(txCtx, &payment.ProcessedEvent{
			Reference:  event.Reference,
			Event:      event.Name,
			ReceivedAt: time.Now(),
		})
		if errors.Is(err, payment.ErrDuplicateEvent) {
			return errAlreadyProcessed
		}
		if err != nil {
			return err
		}

		o, p, err := uc.resolve(txCtx, event)
		if err != nil {
			return err
		}
		if event.AmountKobo != o.AmountKobo() {
			uc.logger.Error("支付金额与订单不一致",
				zap.String("order_no", o.OrderNo),
				zap.String("reference", event.Reference),
				zap.Int64("paid_kobo", event.AmountKobo),
				zap.Int64("expected_kobo", o.AmountKobo()),
			)
			return payment.ErrAmountMismatch
		}

		switch o.Status {
		case order.StatusPending:
			if err := uc.orders.CompareAndSetStatus(txCtx, o.ID, order.StatusPending, order.StatusPaid, event.Reference); err != nil {
				return err
			}
			o.Status = order.StatusPaid
			o.PaymentReference = event.Reference
			paid = o
		case order.StatusPaid, order.StatusShipped, order.StatusDelivered:
			// 同一订单另一笔reference已经支付过
			uc.logger.Warn("订单已支付，忽略重复付款", zap.String("order_no", o.OrderNo), zap.String("reference", event.Reference))
		default:
			uc.logger.Error("已取消的订单收到付款，需要人工退款", zap.String("order_no", o.OrderNo), zap.String("reference", event.Reference))
			return payment.ErrOrderNotPayable
		}

		if p != nil {
			return uc.payments.MarkPaid(txCtx, p.Reference)
		}
		return nil
	})

	switch {
	case errors.Is(err, errAlreadyProcessed):
		metrics.PaymentWebhookEventsTotal.WithLabelValues(event.Name, "duplicate").Inc()
		result.Duplicate = true
		return result, nil
	case err != nil:
		metrics.PaymentWebhookEventsTotal.WithLabelValues(event.Name, "failure").Inc()
		return nil, err
	}

	metrics.PaymentWebhookEventsTotal.WithLabelValues(event.Name, "success").Inc()
	if paid != nil {
		result.Handled = true
		metrics.OrderStatusTransitionsTotal.WithLabelValues(string(order.StatusPending), string(order.StatusPaid)).Inc()
		uc.logger.Info("订单支付成功", zap.String("order_no", paid.OrderNo), zap.String("reference", event.Reference))
		uc.notifier.PaymentReceived(ctx, paid)
	}
	return result, nil
}

// resolve 按reference找支付记录和订单；没有支付记录时用metadata里的orderId
func (uc *HandleWebhookUseCase) resolve(ctx context.Context, event *payment.Event) (*order.Order, *payment.Payment, error) {
	p, err := uc.payments.FindByReference(ctx, event.Reference)
	switch {
	case err == nil:
		o, err := uc.orders.FindByID(ctx, p.OrderID)
		return o, p, err
	case errors.Is(err, payment.ErrPaymentNotFound) && event.OrderID != "":
		o, err := uc.orders.FindByID(ctx, event.OrderID)
		return o, nil, err
	default:
		return nil, nil, err
	}
}
