package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/perfumestore/internal/application/cart"
	"github.com/xiebiao/perfumestore/internal/interface/http/dto"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// CartHandler 会话购物车，会话ID由CartSession中间件写入
type CartHandler struct {
	service *appcart.Service
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(service *appcart.Service) *CartHandler {
	return &CartHandler{service: service}
}

// GetCart 购物车汇总
// @Summary      查看购物车
// @Description  关联当前目录计算小计和运费，已下架商品不显示
// @Tags         购物车
// @Produce      json
// @Param        state query string false "收货州，用于估算运费"
// @Success      200 {object} response.Response{data=appcart.Summary}
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	h.respondSummary(c)
}

// AddItem 加入购物车
// @Summary      加入购物车
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        request body dto.AddCartItemRequest true "商品和数量"
// @Success      200 {object} response.Response{data=appcart.Summary}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if _, err := h.service.Add(c.Request.Context(), middleware.GetCartSessionID(c), req.ProductID, req.Quantity); err != nil {
		response.Error(c, err)
		return
	}
	h.respondSummary(c)
}

// UpdateItem 修改数量
// @Summary      修改购物车数量
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Param        productId path string                    true "商品ID"
// @Param        request   body dto.UpdateCartItemRequest true "数量，<=0删除"
// @Success      200 {object} response.Response{data=appcart.Summary}
// @Router       /cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if _, err := h.service.Update(c.Request.Context(), middleware.GetCartSessionID(c), c.Param("productId"), req.Quantity); err != nil {
		response.Error(c, err)
		return
	}
	h.respondSummary(c)
}

// RemoveItem 移除商品
// @Summary      移除购物车商品
// @Tags         购物车
// @Produce      json
// @Param        productId path string true "商品ID"
// @Success      200 {object} response.Response{data=appcart.Summary}
// @Router       /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if _, err := h.service.Remove(c.Request.Context(), middleware.GetCartSessionID(c), c.Param("productId")); err != nil {
		response.Error(c, err)
		return
	}
	h.respondSummary(c)
}

// Clear 清空购物车
// @Summary      清空购物车
// @Tags         购物车
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), middleware.GetCartSessionID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *CartHandler) respondSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), middleware.GetCartSessionID(c), c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Cart-Count", strconv.Itoa(summary.Count))
	response.Success(c, summary)
}
