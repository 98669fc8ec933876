package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/perfumestore/internal/domain/order"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// orderRepository 订单仓储(MySQL)
// Order和OrderItem是一个聚合，一起保存；查询时Preload明细避免N+1
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 保存订单和明细，GORM会自动插入has-many关联
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := conn(ctx, r.db).Create(toOrderModel(o)).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.findOne(ctx, "order_no = ?", orderNo)
}

func (r *orderRepository) findOne(ctx context.Context, query, arg string) (*order.Order, error) {
	var model OrderModel
	err := conn(ctx, r.db).Preload("Items").Where(query, arg).First(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

func (r *orderRepository) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*order.Order, int64, error) {
	return r.list(conn(ctx, r.db).Model(&OrderModel{}).Where("user_id = ?", userID), page, pageSize)
}

func (r *orderRepository) List(ctx context.Context, status order.Status, page, pageSize int) ([]*order.Order, int64, error) {
	query := conn(ctx, r.db).Model(&OrderModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	return r.list(query, page, pageSize)
}

func (r *orderRepository) list(query *gorm.DB, page, pageSize int) ([]*order.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	var models []OrderModel
	err := query.Preload("Items").
		Order("created_at DESC, id ASC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// CompareAndSetStatus UPDATE orders SET status = to WHERE id = ? AND status = from
func (r *orderRepository) CompareAndSetStatus(ctx context.Context, id string, from, to order.Status, paymentRef string) error {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	if paymentRef != "" {
		updates["payment_reference"] = paymentRef
	}

	result := conn(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单状态失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrStatusConflict
	}
	return nil
}

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			PriceNGN:    item.PriceNGN,
		}
	}

	return &OrderModel{
		ID:               o.ID,
		OrderNo:          o.OrderNo,
		UserID:           o.UserID,
		Email:            o.Email,
		Status:           string(o.Status),
		SubtotalNGN:      o.SubtotalNGN,
		DiscountNGN:      o.DiscountNGN,
		ShippingNGN:      o.ShippingNGN,
		TotalNGN:         o.TotalNGN,
		CouponID:         o.CouponID,
		AddressLine1:     o.Address.Line1,
		City:             o.Address.City,
		State:            o.Address.State,
		Phone:            o.Address.Phone,
		IsGift:           o.Gift.IsGift,
		GiftMessage:      o.Gift.Message,
		GiftWrapping:     o.Gift.Wrapping,
		PaymentReference: o.PaymentReference,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderEntity(m *OrderModel) *order.Order {
	items := make([]order.Item, len(m.Items))
	for i, item := range m.Items {
		items[i] = order.Item{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			PriceNGN:    item.PriceNGN,
		}
	}

	return &order.Order{
		ID:          m.ID,
		OrderNo:     m.OrderNo,
		UserID:      m.UserID,
		Email:       m.Email,
		Status:      order.Status(m.Status),
		SubtotalNGN: m.SubtotalNGN,
		DiscountNGN: m.DiscountNGN,
		ShippingNGN: m.ShippingNGN,
		TotalNGN:    m.TotalNGN,
		CouponID:    m.CouponID,
		Address: order.Address{
			Line1: m.AddressLine1,
			City:  m.City,
			State: m.State,
			Phone: m.Phone,
		},
		Gift: order.Gift{
			IsGift:   m.IsGift,
			Message:  m.GiftMessage,
			Wrapping: m.GiftWrapping,
		},
		PaymentReference: m.PaymentReference,
		Items:            items,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
