package product

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/product"
)

// ManageProductsUseCase 管理端上架、修改、下架
type ManageProductsUseCase struct {
	productService product.Service
	logger         *zap.Logger
}

// NewManageProductsUseCase 创建管理端用例
func NewManageProductsUseCase(productService product.Service, logger *zap.Logger) *ManageProductsUseCase {
	return &ManageProductsUseCase{productService: productService, logger: logger.Named("product")}
}

// CreateProductRequest 上架请求
type CreateProductRequest struct {
	Name        string
	Slug        string // 为空时由名称生成
	Brand       string
	PriceNGN    int64
	Stock       int
	ImageURL    string
	Description string
}

// UpdateProductRequest 修改请求，空字符串/nil表示不修改
type UpdateProductRequest struct {
	ID          string
	Name        string
	Brand       string
	ImageURL    string
	Description string
	PriceNGN    *int64
	Stock       *int
}

// Create 上架
func (uc *ManageProductsUseCase) Create(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	p, err := uc.productService.Create(ctx, req.Name, req.Slug, req.Brand, req.PriceNGN, req.Stock, req.ImageURL, req.Description)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("商品上架", zap.String("product_id", p.ID), zap.String("slug", p.Slug))
	dto := toDTO(p)
	return &dto, nil
}

// Update 修改
func (uc *ManageProductsUseCase) Update(ctx context.Context, req UpdateProductRequest) (*ProductDTO, error) {
	p, err := uc.productService.Update(ctx, req.ID, product.UpdateInput{
		Name:        req.Name,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		PriceNGN:    req.PriceNGN,
		Stock:       req.Stock,
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}

// Delete 下架（软删除），历史订单不受影响
func (uc *ManageProductsUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.productService.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("商品下架", zap.String("product_id", id))
	return nil
}
