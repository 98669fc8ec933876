package product

import (
	"context"

	"github.com/xiebiao/perfumestore/internal/domain/product"
)

// ListProductsUseCase 商品列表
// 列表不返回description，减少传输量
type ListProductsUseCase struct {
	productService product.Service
}

// NewListProductsUseCase 创建列表用例
func NewListProductsUseCase(productService product.Service) *ListProductsUseCase {
	return &ListProductsUseCase{productService: productService}
}

// ListProductsRequest 列表查询
type ListProductsRequest struct {
	Page     int
	PageSize int
	Keyword  string
	Brand    string
	SortBy   string // price_asc, price_desc, newest
}

// ListProductsResponse 分页结果
type ListProductsResponse struct {
	List       []ProductDTO `json:"list"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// Execute 执行查询
func (uc *ListProductsUseCase) Execute(ctx context.Context, req ListProductsRequest) (*ListProductsResponse, error) {
	params := product.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Brand:    req.Brand,
		SortBy:   req.SortBy,
	}
	params.Normalize()

	products, total, err := uc.productService.List(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]ProductDTO, len(products))
	for i, p := range products {
		list[i] = toDTO(p)
		list[i].Description = ""
	}

	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize != 0 {
		totalPages++
	}
	return &ListProductsResponse{
		List:       list,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetProductUseCase 商品详情
type GetProductUseCase struct {
	productService product.Service
}

// NewGetProductUseCase 创建详情用例
func NewGetProductUseCase(productService product.Service) *GetProductUseCase {
	return &GetProductUseCase{productService: productService}
}

// Execute 按ID查询，已下架视为不存在
func (uc *GetProductUseCase) Execute(ctx context.Context, id string) (*ProductDTO, error) {
	p, err := uc.productService.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}
