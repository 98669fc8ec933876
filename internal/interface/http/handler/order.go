package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/perfumestore/internal/application/order"
	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/interface/http/dto"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createUseCase  *apporder.CreateOrderUseCase
	statusUseCase  *apporder.UpdateOrderStatusUseCase
	queryUseCase   *apporder.QueryUseCase
	paymentUseCase *apppayment.InitializePaymentUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createUseCase *apporder.CreateOrderUseCase,
	statusUseCase *apporder.UpdateOrderStatusUseCase,
	queryUseCase *apporder.QueryUseCase,
	paymentUseCase *apppayment.InitializePaymentUseCase,
) *OrderHandler {
	return &OrderHandler{
		createUseCase:  createUseCase,
		statusUseCase:  statusUseCase,
		queryUseCase:   queryUseCase,
		paymentUseCase: paymentUseCase,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  锁定商品行后以数据库价格重算小计、折扣和运费，与客户端合计不一致时拒绝。
// @Description  扣库存和核销优惠券都是条件更新，任一失败整体回滚；成功后清空购物车
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=apporder.CreateOrderResponse} "下单成功"
// @Failure      200 {object} response.Response "40001 库存不足 / 40006 金额不一致 / 40402 商品不存在"
// @Failure      429 {object} response.Response "请求过于频繁"
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	items := make([]apporder.CreateOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = apporder.CreateOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			PriceNGN:  it.PriceNGN,
		}
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		UserID:    middleware.MustGetUserID(c),
		Email:     middleware.GetEmail(c),
		SessionID: middleware.GetCartSessionID(c),
		Address: order.Address{
			Line1: req.Address.Line1,
			City:  req.Address.City,
			State: req.Address.State,
			Phone: req.Address.Phone,
		},
		Items:        items,
		SubtotalNGN:  req.SubtotalNGN,
		DiscountNGN:  req.DiscountNGN,
		ShippingNGN:  req.ShippingNGN,
		TotalNGN:     req.TotalNGN,
		CouponID:     req.CouponID,
		IsGift:       req.IsGift,
		GiftMessage:  req.GiftMessage,
		GiftWrapping: req.GiftWrapping,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListMyOrders 我的订单
// @Summary      我的订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=apporder.ListOrdersResponse}
// @Router       /orders [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.queryUseCase.ListForUser(c.Request.Context(), middleware.MustGetUserID(c), apporder.ListOrdersRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetMyOrder 订单详情，只能看自己的订单
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40403 订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	result, err := h.queryUseCase.GetForUser(c.Request.Context(), middleware.MustGetUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// PayOrder 发起支付，返回网关支付页地址
// @Summary      发起支付
// @Description  订单必须属于当前用户且为PENDING，金额以订单总额为准
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=apppayment.InitializePaymentResponse}
// @Failure      200 {object} response.Response "40002 订单状态不允许支付 / 502xx 支付网关不可用"
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) PayOrder(c *gin.Context) {
	result, err := h.paymentUseCase.Execute(c.Request.Context(), apppayment.InitializePaymentRequest{
		UserID:  middleware.MustGetUserID(c),
		Email:   middleware.GetEmail(c),
		OrderID: c.Param("id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 管理端订单列表
// @Summary      订单列表
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "页码" default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Param        status    query string false "按状态过滤" Enums(PENDING, PAID, SHIPPED, DELIVERED, CANCELLED)
// @Success      200 {object} response.Response{data=apporder.ListOrdersResponse}
// @Router       /admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.queryUseCase.ListAll(c.Request.Context(), apporder.ListOrdersRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateStatus 修改订单状态
// @Summary      修改订单状态
// @Description  PENDING→PAID→SHIPPED→DELIVERED，PENDING/PAID可取消（回补库存）。并发修改时只有一个成功
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40002 状态流转非法 / 40007 状态已被并发修改"
// @Router       /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.statusUseCase.Execute(c.Request.Context(), apporder.UpdateOrderStatusCommand{
		OrderID:   c.Param("id"),
		NewStatus: req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
