// Package notification 后台站内通知
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// Kind 通知类型
type Kind string

const (
	KindOrderPlaced        Kind = "order_placed"
	KindOrderStatusChanged Kind = "order_status_changed"
	KindPaymentReceived    Kind = "payment_received"
)

// AdminNotification 管理员站内通知
type AdminNotification struct {
	ID        string
	Kind      Kind
	Title     string
	Body      string
	OrderID   string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// New 创建通知
func New(kind Kind, title, body, orderID string) *AdminNotification {
	return &AdminNotification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Body:      body,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}
}

// IsRead 是否已读
func (n *AdminNotification) IsRead() bool {
	return n.ReadAt != nil
}

var ErrNotificationNotFound = apperrors.New(apperrors.ErrCodeNotFound, "notification not found")

// Repository 通知仓储
type Repository interface {
	Create(ctx context.Context, n *AdminNotification) error

	List(ctx context.Context, unreadOnly bool, page, pageSize int) ([]*AdminNotification, int64, error)

	// MarkRead 已读的重复标记无操作；不存在返回ErrNotificationNotFound
	MarkRead(ctx context.Context, id string, at time.Time) error
}
