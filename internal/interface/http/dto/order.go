package dto

// CreateOrderRequest 下单请求
// 金额是客户端结算页展示的值，服务端会重新计算并比对合计
type CreateOrderRequest struct {
	Address      AddressRequest     `json:"address" binding:"required"`
	Items        []OrderItemRequest `json:"items"`
	SubtotalNGN  int64              `json:"subtotal_ngn" example:"50000"`
	DiscountNGN  int64              `json:"discount_ngn" example:"5000"`
	ShippingNGN  int64              `json:"shipping_ngn" example:"1500"`
	TotalNGN     int64              `json:"total_ngn" example:"46500"`
	CouponID     string             `json:"coupon_id"`
	IsGift       bool               `json:"is_gift"`
	GiftMessage  string             `json:"gift_message" binding:"max=250"`
	GiftWrapping bool               `json:"gift_wrapping"`
}

// AddressRequest 收货地址
type AddressRequest struct {
	Line1 string `json:"line1" binding:"required,max=255" example:"12 Admiralty Way"`
	City  string `json:"city" binding:"required,max=100" example:"Lekki"`
	State string `json:"state" binding:"required,max=100" example:"Lagos"`
	Phone string `json:"phone" binding:"required,max=30" example:"08030000000"`
}

// OrderItemRequest 下单明细，price_ngn仅用于比对
type OrderItemRequest struct {
	ProductID string `json:"product_id" example:"0b9c5f0e-3f7a-4c1e-9a51-3f0f1b2c7d11"`
	Quantity  int    `json:"quantity" example:"2"`
	PriceNGN  int64  `json:"price_ngn" example:"25000"`
}

// ListOrdersRequest 订单分页，status只对管理端生效
type ListOrdersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PAID SHIPPED DELIVERED CANCELLED"`
}

// UpdateOrderStatusRequest 管理端修改订单状态
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"SHIPPED"`
}
