package handler

import (
	"github.com/gin-gonic/gin"

	appnotify "github.com/xiebiao/perfumestore/internal/application/notify"
	"github.com/xiebiao/perfumestore/internal/interface/http/dto"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// NotificationHandler 后台通知
type NotificationHandler struct {
	useCase *appnotify.NotificationsUseCase
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(useCase *appnotify.NotificationsUseCase) *NotificationHandler {
	return &NotificationHandler{useCase: useCase}
}

// List 通知列表，新的在前
// @Summary      后台通知
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        unread_only query bool false "只看未读"
// @Param        page        query int  false "页码" default(1)
// @Param        page_size   query int  false "每页数量" default(20)
// @Success      200 {object} response.Response{data=appnotify.ListNotificationsResponse}
// @Router       /admin/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.useCase.List(c.Request.Context(), req.UnreadOnly, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MarkRead 标记已读
// @Summary      标记通知已读
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "通知ID"
// @Success      200 {object} response.Response
// @Router       /admin/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.useCase.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
