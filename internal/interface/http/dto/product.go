package dto

// ListProductsRequest 商品列表查询参数
type ListProductsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"oud"`
	Brand    string `form:"brand" binding:"omitempty,max=100" example:"Maison Lagos"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc newest" example:"newest"`
}

// CreateProductRequest 上架请求，价格单位NGN
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,max=200" example:"Oud Royale 100ml"`
	Slug        string `json:"slug" binding:"omitempty,max=200" example:"oud-royale-100ml"`
	Brand       string `json:"brand" binding:"max=100" example:"Maison Lagos"`
	PriceNGN    int64  `json:"price_ngn" binding:"required,min=1" example:"45000"`
	Stock       int    `json:"stock" binding:"min=0" example:"20"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500" example:"https://cdn.example.com/oud.jpg"`
	Description string `json:"description" binding:"max=5000"`
}

// UpdateProductRequest 修改请求，未传的字段不修改
type UpdateProductRequest struct {
	Name        string `json:"name" binding:"omitempty,max=200"`
	Brand       string `json:"brand" binding:"omitempty,max=100"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	PriceNGN    *int64 `json:"price_ngn" binding:"omitempty,min=1"`
	Stock       *int   `json:"stock" binding:"omitempty,min=0"`
}
