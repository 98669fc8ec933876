package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/perfumestore/internal/application/product"
	"github.com/xiebiao/perfumestore/internal/interface/http/dto"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// ProductHandler 商品目录（前台浏览 + 管理端维护）
type ProductHandler struct {
	listUseCase   *appproduct.ListProductsUseCase
	getUseCase    *appproduct.GetProductUseCase
	manageUseCase *appproduct.ManageProductsUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	listUseCase *appproduct.ListProductsUseCase,
	getUseCase *appproduct.GetProductUseCase,
	manageUseCase *appproduct.ManageProductsUseCase,
) *ProductHandler {
	return &ProductHandler{
		listUseCase:   listUseCase,
		getUseCase:    getUseCase,
		manageUseCase: manageUseCase,
	}
}

// ListProducts 商品列表
// @Summary      商品列表
// @Description  分页查询在售商品，支持按名称/品牌关键字搜索
// @Tags         商品
// @Produce      json
// @Param        page      query int    false "页码" default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Param        keyword   query string false "关键字"
// @Param        brand     query string false "品牌"
// @Param        sort_by   query string false "排序" Enums(price_asc, price_desc, newest)
// @Success      200 {object} response.Response{data=appproduct.ListProductsResponse}
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appproduct.ListProductsRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Brand:    req.Brand,
		SortBy:   req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetProduct 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Param        id path string true "商品ID"
// @Success      200 {object} response.Response{data=appproduct.ProductDTO}
// @Failure      200 {object} response.Response "40402 商品不存在"
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	result, err := h.getUseCase.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateProduct 上架商品
// @Summary      上架商品
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateProductRequest true "商品信息"
// @Success      200 {object} response.Response{data=appproduct.ProductDTO}
// @Failure      200 {object} response.Response "40004 slug已存在"
// @Router       /admin/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.manageUseCase.Create(c.Request.Context(), appproduct.CreateProductRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Brand:       req.Brand,
		PriceNGN:    req.PriceNGN,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateProduct 修改商品（价格、库存、信息）
// @Summary      修改商品
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                   true "商品ID"
// @Param        request body dto.UpdateProductRequest true "要修改的字段"
// @Success      200 {object} response.Response{data=appproduct.ProductDTO}
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.manageUseCase.Update(c.Request.Context(), appproduct.UpdateProductRequest{
		ID:          c.Param("id"),
		Name:        req.Name,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		PriceNGN:    req.PriceNGN,
		Stock:       req.Stock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteProduct 下架（软删除），历史订单不受影响
// @Summary      下架商品
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "商品ID"
// @Success      200 {object} response.Response
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.manageUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
