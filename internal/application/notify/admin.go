package notify

import (
	"context"
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/notification"
)

// NotificationsUseCase 后台通知列表/已读
type NotificationsUseCase struct {
	repo notification.Repository
}

// NewNotificationsUseCase 创建后台通知用例
func NewNotificationsUseCase(repo notification.Repository) *NotificationsUseCase {
	return &NotificationsUseCase{repo: repo}
}

// NotificationDTO 通知
type NotificationDTO struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	OrderID   string  `json:"order_id,omitempty"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at"`
}

// ListNotificationsResponse 通知分页
type ListNotificationsResponse struct {
	List     []NotificationDTO `json:"list"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// List 通知列表，新的在前
func (uc *NotificationsUseCase) List(ctx context.Context, unreadOnly bool, page, pageSize int) (*ListNotificationsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := uc.repo.List(ctx, unreadOnly, page, pageSize)
	if err != nil {
		return nil, err
	}

	list := make([]NotificationDTO, len(items))
	for i, n := range items {
		list[i] = NotificationDTO{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Body:      n.Body,
			OrderID:   n.OrderID,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
		if n.ReadAt != nil {
			s := n.ReadAt.Format(time.RFC3339)
			list[i].ReadAt = &s
		}
	}
	return &ListNotificationsResponse{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}

// MarkRead 标记已读
func (uc *NotificationsUseCase) MarkRead(ctx context.Context, id string) error {
	return uc.repo.MarkRead(ctx, id, time.Now())
}
