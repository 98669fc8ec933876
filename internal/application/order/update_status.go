package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/pkg/metrics"
)

// UpdateOrderStatusUseCase 管理端修改订单状态
type UpdateOrderStatusUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	tx          Transactor
	notifier    Notifier
	logger      *zap.Logger
}

// NewUpdateOrderStatusUseCase 创建状态修改用例
func NewUpdateOrderStatusUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	tx Transactor,
	notifier Notifier,
	logger *zap.Logger,
) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		tx:          tx,
		notifier:    notifier,
		logger:      logger.Named("order"),
	}
}

// UpdateOrderStatusCommand 状态修改命令
type UpdateOrderStatusCommand struct {
	OrderID   string
	NewStatus string
}

// Execute 校验状态机后用CAS更新，取消时同一事务内回补库存
// 提交后发送客户邮件和后台通知
func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, cmd UpdateOrderStatusCommand) (*OrderDTO, error) {
	target, err := order.ParseStatus(cmd.NewStatus)
	if err != nil {
		return nil, err
	}
	if cmd.OrderID == "" {
		return nil, order.ErrOrderNotFound
	}

	var updated *order.Order
	var from order.Status
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.FindByID(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		from = o.Status
		if err := o.TransitionTo(target); err != nil {
			return err
		}

		// 并发修改时只有一个请求能命中 WHERE status = from
		if err := uc.orderRepo.CompareAndSetStatus(txCtx, o.ID, from, target, ""); err != nil {
			return err
		}

		if target == order.StatusCancelled {
			for _, it := range o.Items {
				if err := uc.productRepo.IncrementStock(txCtx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(target)).Inc()
	uc.logger.Info("订单状态变更",
		zap.String("order_no", updated.OrderNo),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)

	uc.notifier.StatusChanged(ctx, updated, from)

	dto := ToDTO(updated)
	return &dto, nil
}
