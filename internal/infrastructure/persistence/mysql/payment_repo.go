package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/perfumestore/internal/domain/payment"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := &PaymentModel{
		ID:               p.ID,
		Reference:        p.Reference,
		OrderID:          p.OrderID,
		UserID:           p.UserID,
		AmountKobo:       p.AmountKobo,
		Status:           string(p.Status),
		AuthorizationURL: p.AuthorizationURL,
		CreatedAt:        p.CreatedAt,
		PaidAt:           p.PaidAt,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "duplicate payment reference")
		}
		return apperrors.Wrap(err, "创建支付记录失败")
	}
	return nil
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	var m PaymentModel
	if err := conn(ctx, r.db).Where("reference = ?", reference).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(err, "查询支付记录失败")
	}
	return &payment.Payment{
		ID:               m.ID,
		Reference:        m.Reference,
		OrderID:          m.OrderID,
		UserID:           m.UserID,
		AmountKobo:       m.AmountKobo,
		Status:           payment.Status(m.Status),
		AuthorizationURL: m.AuthorizationURL,
		CreatedAt:        m.CreatedAt,
		PaidAt:           m.PaidAt,
	}, nil
}

// MarkPaid 只更新pending的记录，已是paid时保持原paid_at
func (r *paymentRepository) MarkPaid(ctx context.Context, reference string) error {
	result := conn(ctx, r.db).Model(&PaymentModel{}).
		Where("reference = ? AND status <> ?", reference, string(payment.StatusPaid)).
		Updates(map[string]interface{}{
			"status":  string(payment.StatusPaid),
			"paid_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新支付状态失败")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := conn(ctx, r.db).Model(&PaymentModel{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询支付记录失败")
	}
	if count == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

// RecordEvent 依赖uk_reference_event唯一索引去重
func (r *paymentRepository) RecordEvent(ctx context.Context, e *payment.ProcessedEvent) error {
	model := &PaymentEventModel{
		Reference:  e.Reference,
		Event:      e.Event,
		ReceivedAt: e.ReceivedAt,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return payment.ErrDuplicateEvent
		}
		return apperrors.Wrap(err, "记录支付回调失败")
	}
	return nil
}
