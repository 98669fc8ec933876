// Package pricing 订单金额计算
//
// 所有金额都是int64整数奈拉（NGN，不含kobo），不使用浮点数。
package pricing

// Line 计价行
type Line struct {
	PriceNGN int64
	Quantity int
}

// Totals 金额汇总
// 不变量：TotalNGN == SubtotalNGN - DiscountNGN + ShippingNGN
type Totals struct {
	SubtotalNGN int64 `json:"subtotal_ngn"`
	DiscountNGN int64 `json:"discount_ngn"`
	ShippingNGN int64 `json:"shipping_ngn"`
	TotalNGN    int64 `json:"total_ngn"`
}

// Subtotal Σ price * quantity
func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.PriceNGN * int64(l.Quantity)
	}
	return subtotal
}

// ComputeTotals 计算订单金额
// 折扣被夹到[0, subtotal]，运费为负按0处理
func ComputeTotals(lines []Line, discountNGN, shippingNGN int64) Totals {
	subtotal := Subtotal(lines)
	discount := ClampDiscount(discountNGN, subtotal)
	if shippingNGN < 0 {
		shippingNGN = 0
	}
	return Totals{
		SubtotalNGN: subtotal,
		DiscountNGN: discount,
		ShippingNGN: shippingNGN,
		TotalNGN:    subtotal - discount + shippingNGN,
	}
}

// ClampDiscount 把折扣限制在[0, subtotal]
func ClampDiscount(discount, subtotal int64) int64 {
	if discount < 0 {
		return 0
	}
	if subtotal < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}
