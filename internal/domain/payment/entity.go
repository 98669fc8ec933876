// Package payment 支付记录与网关抽象
package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status 支付状态
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// EventChargeSuccess 网关回调事件：扣款成功
const EventChargeSuccess = "charge.success"

// Payment 一次支付尝试（一个订单可以有多次，用reference区分）
type Payment struct {
	ID               string
	Reference        string // PAY-<uuid>，发给网关的唯一流水号
	OrderID          string
	UserID           string
	AmountKobo       int64
	Status           Status
	AuthorizationURL string
	CreatedAt        time.Time
	PaidAt           *time.Time
}

// NewReference 生成支付流水号
func NewReference() string {
	return "PAY-" + uuid.NewString()
}

// NewPayment 创建待支付记录
func NewPayment(reference, orderID, userID string, amountKobo int64, authorizationURL string) *Payment {
	return &Payment{
		ID:               uuid.NewString(),
		Reference:        reference,
		OrderID:          orderID,
		UserID:           userID,
		AmountKobo:       amountKobo,
		Status:           StatusPending,
		AuthorizationURL: authorizationURL,
		CreatedAt:        time.Now(),
	}
}

// Event 已验签的网关回调
type Event struct {
	Name       string // 如 charge.success
	Reference  string
	AmountKobo int64
	OrderID    string // metadata.orderId
	Status     string
}

// ProcessedEvent 回调去重记录，(reference, event)唯一
type ProcessedEvent struct {
	Reference  string
	Event      string
	ReceivedAt time.Time
}
