package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/perfumestore/internal/domain/notification"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建后台通知仓储
func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *notification.AdminNotification) error {
	model := &AdminNotificationModel{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		OrderID:   n.OrderID,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建通知失败")
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, unreadOnly bool, page, pageSize int) ([]*notification.AdminNotification, int64, error) {
	query := conn(ctx, r.db).Model(&AdminNotificationModel{})
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询通知总数失败")
	}

	var models []AdminNotificationModel
	err := query.Order("created_at DESC, id ASC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询通知列表失败")
	}

	out := make([]*notification.AdminNotification, len(models))
	for i, m := range models {
		out[i] = &notification.AdminNotification{
			ID:        m.ID,
			Kind:      notification.Kind(m.Kind),
			Title:     m.Title,
			Body:      m.Body,
			OrderID:   m.OrderID,
			CreatedAt: m.CreatedAt,
			ReadAt:    m.ReadAt,
		}
	}
	return out, total, nil
}

// MarkRead 只写第一次已读时间
func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	result := conn(ctx, r.db).Model(&AdminNotificationModel{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "标记通知已读失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := conn(ctx, r.db).Model(&AdminNotificationModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询通知失败")
	}
	if count == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
