package payment

import "context"

// Repository 支付仓储
type Repository interface {
	Create(ctx context.Context, p *Payment) error

	FindByReference(ctx context.Context, reference string) (*Payment, error)

	// MarkPaid pending -> paid，已是paid时无操作
	MarkPaid(ctx context.Context, reference string) error

	// RecordEvent 插入去重记录，唯一键冲突返回ErrDuplicateEvent
	// 与订单状态变更在同一事务内调用
	RecordEvent(ctx context.Context, e *ProcessedEvent) error
}
