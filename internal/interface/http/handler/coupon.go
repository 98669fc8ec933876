package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appcoupon "github.com/xiebiao/perfumestore/internal/application/coupon"
	"github.com/xiebiao/perfumestore/internal/interface/http/dto"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// CouponHandler 优惠券校验与管理
type CouponHandler struct {
	validateUseCase *appcoupon.ValidateCouponUseCase
	manageUseCase   *appcoupon.ManageCouponsUseCase
}

// NewCouponHandler 创建优惠券处理器
func NewCouponHandler(validateUseCase *appcoupon.ValidateCouponUseCase, manageUseCase *appcoupon.ManageCouponsUseCase) *CouponHandler {
	return &CouponHandler{validateUseCase: validateUseCase, manageUseCase: manageUseCase}
}

// Validate 校验券码并返回折扣，不核销
// @Summary      校验优惠券
// @Description  按顺序检查：不存在、未启用、不在有效期、次数已满、未达最低消费
// @Tags         优惠券
// @Accept       json
// @Produce      json
// @Param        request body dto.ValidateCouponRequest true "券码和小计"
// @Success      200 {object} response.Response{data=appcoupon.ValidateCouponResponse}
// @Failure      200 {object} response.Response "40404/40010/40011/40012/40013 拒绝原因"
// @Failure      429 {object} response.Response "请求过于频繁"
// @Router       /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.validateUseCase.Execute(c.Request.Context(), appcoupon.ValidateCouponRequest{
		Code:        req.Code,
		SubtotalNGN: req.SubtotalNGN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListCoupons 优惠券列表
// @Summary      优惠券列表
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=appcoupon.ListCouponsResponse}
// @Router       /admin/coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.manageUseCase.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateCoupon 创建优惠券，券码统一转大写
// @Summary      创建优惠券
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateCouponRequest true "优惠券"
// @Success      200 {object} response.Response{data=appcoupon.CouponDTO}
// @Failure      200 {object} response.Response "40014 券码已存在"
// @Router       /admin/coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.manageUseCase.Create(c.Request.Context(), appcoupon.CreateCouponRequest{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		Active:      req.Active,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MaxUses:     req.MaxUses,
		MinSubtotal: req.MinSubtotal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateCoupon 修改优惠券
// @Summary      修改优惠券
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                  true "优惠券ID"
// @Param        request body dto.UpdateCouponRequest true "可编辑字段"
// @Success      200 {object} response.Response{data=appcoupon.CouponDTO}
// @Router       /admin/coupons/{id} [put]
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.manageUseCase.Update(c.Request.Context(), appcoupon.UpdateCouponRequest{
		ID:          c.Param("id"),
		Active:      req.Active,
		Value:       req.Value,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		MaxUses:     req.MaxUses,
		MinSubtotal: req.MinSubtotal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
