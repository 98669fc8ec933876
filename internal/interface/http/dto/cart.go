package dto

// AddCartItemRequest 加入购物车，quantity<1按1处理
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"0b9c5f0e-3f7a-4c1e-9a51-3f0f1b2c7d11"`
	Quantity  int    `json:"quantity" example:"1"`
}

// UpdateCartItemRequest 修改数量，quantity<=0等同删除
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" example:"2"`
}
