package order

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/perfumestore/internal/domain/pricing"
)

// Status 订单状态
type Status string

const (
	StatusPending   Status = "PENDING"   // 待支付
	StatusPaid      Status = "PAID"      // 已支付
	StatusShipped   Status = "SHIPPED"   // 已发货
	StatusDelivered Status = "DELIVERED" // 已送达(终态)
	StatusCancelled Status = "CANCELLED" // 已取消(终态)，只能从待支付/已支付进入
)

// transitions 状态机：只允许向前一步或取消，不允许后退、跳步、原地
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus 解析状态（大小写不敏感）
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// CanTransitionTo 是否允许 s -> target
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal 是否终态
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Label 展示用文案（邮件、通知）
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "awaiting payment"
	case StatusPaid:
		return "paid"
	case StatusShipped:
		return "shipped"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	default:
		return string(s)
	}
}

// Address 收货信息
type Address struct {
	Line1 string
	City  string
	State string
	Phone string
}

// Gift 礼品选项
type Gift struct {
	IsGift   bool
	Message  string
	Wrapping bool
}

// Order 订单聚合根
// 不变量（创建时）：
//   - SubtotalNGN == Σ item.PriceNGN * item.Quantity（服务端价格）
//   - TotalNGN == SubtotalNGN - DiscountNGN + ShippingNGN
//
// 创建后只有Status和PaymentReference会变，明细价格不可变
type Order struct {
	ID               string
	OrderNo          string
	UserID           string
	Email            string
	Status           Status
	SubtotalNGN      int64
	DiscountNGN      int64
	ShippingNGN      int64
	TotalNGN         int64
	CouponID         *string
	Address          Address
	Gift             Gift
	PaymentReference string
	Items            []Item
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Item 订单明细，PriceNGN是下单时的商品价格快照
type Item struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	PriceNGN    int64
}

// LineTotal 行金额
func (i Item) LineTotal() int64 {
	return i.PriceNGN * int64(i.Quantity)
}

// NewOrder 创建待支付订单，金额由Pricing Engine算好后传入
func NewOrder(orderNo, userID, email string, items []Item, totals pricing.Totals, couponID *string, addr Address, gift Gift) *Order {
	now := time.Now()
	id := uuid.NewString()
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = id
	}
	return &Order{
		ID:          id,
		OrderNo:     orderNo,
		UserID:      userID,
		Email:       email,
		Status:      StatusPending,
		SubtotalNGN: totals.SubtotalNGN,
		DiscountNGN: totals.DiscountNGN,
		ShippingNGN: totals.ShippingNGN,
		TotalNGN:    totals.TotalNGN,
		CouponID:    couponID,
		Address:     addr,
		Gift:        gift,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransitionTo 状态流转
func (o *Order) TransitionTo(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Totals 金额汇总
func (o *Order) Totals() pricing.Totals {
	return pricing.Totals{
		SubtotalNGN: o.SubtotalNGN,
		DiscountNGN: o.DiscountNGN,
		ShippingNGN: o.ShippingNGN,
		TotalNGN:    o.TotalNGN,
	}
}

// Lines 明细转计价行
func (o *Order) Lines() []pricing.Line {
	lines := make([]pricing.Line, len(o.Items))
	for i, it := range o.Items {
		lines[i] = pricing.Line{PriceNGN: it.PriceNGN, Quantity: it.Quantity}
	}
	return lines
}

// IsOwnedBy 是否属于用户
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}

// AmountKobo 支付网关使用kobo（1 NGN = 100 kobo）
func (o *Order) AmountKobo() int64 {
	return o.TotalNGN * 100
}
