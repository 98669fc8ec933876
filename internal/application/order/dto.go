package order

import (
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/order"
)

// OrderDTO 订单详情
type OrderDTO struct {
	ID               string         `json:"id"`
	OrderNo          string         `json:"order_no"`
	Email            string         `json:"email"`
	Status           string         `json:"status"`
	SubtotalNGN      int64          `json:"subtotal_ngn"`
	DiscountNGN      int64          `json:"discount_ngn"`
	ShippingNGN      int64          `json:"shipping_ngn"`
	TotalNGN         int64          `json:"total_ngn"`
	CouponID         *string        `json:"coupon_id,omitempty"`
	Address          AddressDTO     `json:"address"`
	IsGift           bool           `json:"is_gift"`
	GiftMessage      string         `json:"gift_message,omitempty"`
	GiftWrapping     bool           `json:"gift_wrapping"`
	PaymentReference string         `json:"payment_reference,omitempty"`
	Items            []OrderItemDTO `json:"items"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// AddressDTO 收货信息
type AddressDTO struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Phone string `json:"phone"`
}

// OrderItemDTO 订单明细
type OrderItemDTO struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	PriceNGN     int64  `json:"price_ngn"`
	LineTotalNGN int64  `json:"line_total_ngn"`
}

// ToDTO 领域实体 -> DTO
func ToDTO(o *order.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDTO{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PriceNGN:     it.PriceNGN,
			LineTotalNGN: it.LineTotal(),
		}
	}
	return OrderDTO{
		ID:          o.ID,
		OrderNo:     o.OrderNo,
		Email:       o.Email,
		Status:      string(o.Status),
		SubtotalNGN: o.SubtotalNGN,
		DiscountNGN: o.DiscountNGN,
		ShippingNGN: o.ShippingNGN,
		TotalNGN:    o.TotalNGN,
		CouponID:    o.CouponID,
		Address: AddressDTO{
			Line1: o.Address.Line1,
			City:  o.Address.City,
			State: o.Address.State,
			Phone: o.Address.Phone,
		},
		IsGift:           o.Gift.IsGift,
		GiftMessage:      o.Gift.Message,
		GiftWrapping:     o.Gift.Wrapping,
		PaymentReference: o.PaymentReference,
		Items:            items,
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        o.UpdatedAt.Format(time.RFC3339),
	}
}

// ListOrdersResponse 订单分页
type ListOrdersResponse struct {
	List       []OrderDTO `json:"list"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

func newListResponse(orders []*order.Order, total int64, page, pageSize int) *ListOrdersResponse {
	list := make([]OrderDTO, len(orders))
	for i, o := range orders {
		list[i] = ToDTO(o)
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &ListOrdersResponse{List: list, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}
