// Package product 商品目录用例（前台浏览 + 管理端维护）
package product

import (
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/product"
)

// ProductDTO 商品详情
type ProductDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Brand       string `json:"brand"`
	PriceNGN    int64  `json:"price_ngn"`
	Stock       int    `json:"stock"`
	InStock     bool   `json:"in_stock"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toDTO(p *product.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Brand:       p.Brand,
		PriceNGN:    p.PriceNGN,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
