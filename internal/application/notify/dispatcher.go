// Package notify 订单事件的通知分发（客户邮件 + 后台站内通知）
//
// 两个副作用互相独立、都是尽力而为：失败只记日志，不影响调用方的结果。
// 调用方必须在事务提交之后再调用。
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/mail"
	"github.com/xiebiao/perfumestore/internal/domain/notification"
	"github.com/xiebiao/perfumestore/internal/domain/order"
)

// Dispatcher 通知分发器
type Dispatcher struct {
	sender        mail.Sender
	notifications notification.Repository
	logger        *zap.Logger
}

// NewDispatcher 创建通知分发器
func NewDispatcher(sender mail.Sender, notifications notification.Repository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		notifications: notifications,
		logger:        logger.Named("notify"),
	}
}

// OrderPlaced 下单成功
func (d *Dispatcher) OrderPlaced(ctx context.Context, o *order.Order) {
	d.email(ctx, mail.TemplateOrderPlaced, o)
	d.record(ctx, notification.New(
		notification.KindOrderPlaced,
		fmt.Sprintf("New order %s", o.OrderNo),
		fmt.Sprintf("%s placed an order of %s (%d items) for delivery to %s, %s.",
			o.Email, mail.FormatNaira(o.TotalNGN), itemCount(o), o.Address.City, o.Address.State),
		o.ID,
	))
}

// StatusChanged 状态变更（from为变更前状态）
func (d *Dispatcher) StatusChanged(ctx context.Context, o *order.Order, from order.Status) {
	d.email(ctx, mail.TemplateStatusChanged, o)
	d.record(ctx, notification.New(
		notification.KindOrderStatusChanged,
		fmt.Sprintf("Order %s %s", o.OrderNo, o.Status.Label()),
		fmt.Sprintf("Order %s changed from %s to %s.", o.OrderNo, from, o.Status),
		o.ID,
	))
}

// PaymentReceived 支付到账
func (d *Dispatcher) PaymentReceived(ctx context.Context, o *order.Order) {
	d.email(ctx, mail.TemplatePaymentReceived, o)
	d.record(ctx, notification.New(
		notification.KindPaymentReceived,
		fmt.Sprintf("Payment received for %s", o.OrderNo),
		fmt.Sprintf("%s paid %s (reference %s).", o.Email, mail.FormatNaira(o.TotalNGN), o.PaymentReference),
		o.ID,
	))
}

func (d *Dispatcher) email(ctx context.Context, template string, o *order.Order) {
	if o.Email == "" {
		return
	}
	msg, err := mail.Render(template, viewOf(o))
	if err != nil {
		d.logger.Error("渲染邮件失败", zap.String("template", template), zap.String("order_no", o.OrderNo), zap.Error(err))
		return
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Warn("发送邮件失败",
			zap.String("template", template),
			zap.String("order_no", o.OrderNo),
			zap.String("to", o.Email),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) record(ctx context.Context, n *notification.AdminNotification) {
	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.Warn("写入后台通知失败", zap.String("kind", string(n.Kind)), zap.String("order_id", n.OrderID), zap.Error(err))
	}
}

func viewOf(o *order.Order) mail.OrderView {
	lines := make([]mail.OrderLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = mail.OrderLine{Name: it.ProductName, Quantity: it.Quantity, PriceNGN: it.PriceNGN}
	}
	return mail.OrderView{
		CustomerEmail: o.Email,
		OrderNo:       o.OrderNo,
		Status:        o.Status.Label(),
		Lines:         lines,
		SubtotalNGN:   o.SubtotalNGN,
		DiscountNGN:   o.DiscountNGN,
		ShippingNGN:   o.ShippingNGN,
		TotalNGN:      o.TotalNGN,
		City:          o.Address.City,
		State:         o.Address.State,
	}
}

func itemCount(o *order.Order) int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
