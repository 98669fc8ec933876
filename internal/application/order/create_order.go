package order

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/tracing"
)

const maxGiftMessageLen = 250

// maxItemQuantity 单个商品（合并重复行之后）的最大件数
const maxItemQuantity = 1000

// CreateOrderUseCase 下单用例
// 锁库存、服务端重算金额、扣库存、核销优惠券在同一个事务里完成
type CreateOrderUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	couponRepo  coupon.Repository
	carts       cart.Store
	tx          Transactor
	shipping    pricing.ShippingPolicy
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	couponRepo coupon.Repository,
	carts cart.Store,
	tx Transactor,
	shipping pricing.ShippingPolicy,
	notifier Notifier,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		carts:       carts,
		tx:          tx,
		shipping:    shipping,
		notifier:    notifier,
		logger:      logger.Named("order"),
		now:         time.Now,
	}
}

// CreateOrderRequest 下单请求
// 金额字段是客户端看到的值，只用来和服务端重算结果比对
type CreateOrderRequest struct {
	UserID       string
	Email        string
	SessionID    string // 购物车会话，下单成功后清空
	Address      order.Address
	Items        []CreateOrderItem
	SubtotalNGN  int64
	DiscountNGN  int64
	ShippingNGN  int64
	TotalNGN     int64
	CouponID     string
	IsGift       bool
	GiftMessage  string
	GiftWrapping bool
}

// CreateOrderItem 下单明细，PriceNGN仅用于日志比对
type CreateOrderItem struct {
	ProductID string
	Quantity  int
	PriceNGN  int64
}

// CreateOrderResponse 下单结果
type CreateOrderResponse struct {
	OrderID string         `json:"order_id"`
	OrderNo string         `json:"order_no"`
	Totals  pricing.Totals `json:"totals"`
	Status  string         `json:"status"`
}

// Execute 执行下单
//
// 事务内步骤：
//  1. SELECT ... FOR UPDATE 锁定涉及的商品行（未删除）
//  2. 校验商品存在、库存充足
//  3. 以数据库价格计算小计，重新校验优惠券、计算运费
//  4. 与客户端合计比对，不一致拒绝
//  5. 写订单、条件扣库存、条件核销优惠券
//
// 任一步失败整体回滚
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (resp *CreateOrderResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "order.create", attribute.Int("order.items", len(req.Items)))
	defer func() {
		tracing.End(span, err)
		metrics.OrderCreationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.OrdersFailedTotal.WithLabelValues(apperrors.GetAppError(err).Kind().String()).Inc()
		}
	}()

	items, err := validate(req)
	if err != nil {
		return nil, err
	}

	var created *order.Order
	var couponRedeemed bool
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ProductID
		}
		locked, err := uc.productRepo.LockActiveByIDs(txCtx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*product.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		orderItems := make([]order.Item, len(items))
		lines := make([]pricing.Line, len(items))
		for i, it := range items {
			p, ok := byID[it.ProductID]
			if !ok {
				return product.NotFoundError(it.ProductID)
			}
			if !p.HasStock(it.Quantity) {
				return product.InsufficientStockError(p.Name, p.Stock)
			}
			if it.PriceNGN != 0 && it.PriceNGN != p.PriceNGN {
				uc.logger.Debug("客户端价格与当前价格不一致",
					zap.String("product_id", p.ID),
					zap.Int64("client_price", it.PriceNGN),
					zap.Int64("price", p.PriceNGN),
				)
			}
			orderItems[i] = order.Item{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				PriceNGN:    p.PriceNGN,
			}
			lines[i] = pricing.Line{PriceNGN: p.PriceNGN, Quantity: it.Quantity}
		}

		subtotal := pricing.Subtotal(lines)

		var discount int64
		var couponID *string
		if req.CouponID != "" {
			c, err := uc.couponRepo.FindByID(txCtx, req.CouponID)
			if err != nil {
				return err
			}
			if discount, err = c.Evaluate(uc.now(), subtotal); err != nil {
				metrics.CouponRejectionsTotal.WithLabelValues(coupon.Reason(err)).Inc()
				return err
			}
			couponID = &c.ID
		}

		shipping := uc.shipping.Quote(req.Address.State, subtotal)
		totals := pricing.ComputeTotals(lines, discount, shipping)
		if totals.TotalNGN != req.TotalNGN {
			uc.logger.Info("订单金额不一致",
				zap.String("user_id", req.UserID),
				zap.Int64("client_total", req.TotalNGN),
				zap.Int64("total", totals.TotalNGN),
				zap.Int64("client_discount", req.DiscountNGN),
				zap.Int64("discount", totals.DiscountNGN),
				zap.Int64("client_shipping", req.ShippingNGN),
				zap.Int64("shipping", totals.ShippingNGN),
			)
			return order.ErrTotalMismatch
		}

		o := order.NewOrder(order.GenerateOrderNo(), req.UserID, req.Email, orderItems, totals, couponID,
			trimAddress(req.Address), order.Gift{IsGift: req.IsGift, Message: strings.TrimSpace(req.GiftMessage), Wrapping: req.GiftWrapping})
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}

		for _, it := range o.Items {
			if err := uc.productRepo.DecrementStock(txCtx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					p := byID[it.ProductID]
					return product.InsufficientStockError(p.Name, p.Stock)
				}
				return err
			}
		}

		if couponID != nil {
			if err := uc.couponRepo.Redeem(txCtx, *couponID); err != nil {
				metrics.CouponRejectionsTotal.WithLabelValues(coupon.Reason(err)).Inc()
				return err
			}
			couponRedeemed = true
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	if couponRedeemed {
		metrics.CouponRedemptionsTotal.Inc()
	}
	uc.logger.Info("订单创建成功",
		zap.String("order_no", created.OrderNo),
		zap.String("user_id", created.UserID),
		zap.Int64("total", created.TotalNGN),
	)

	if req.SessionID != "" {
		if err := uc.carts.Delete(ctx, req.SessionID); err != nil {
			uc.logger.Warn("清空购物车失败", zap.String("order_no", created.OrderNo), zap.Error(err))
		}
	}
	uc.notifier.OrderPlaced(ctx, created)

	return &CreateOrderResponse{
		OrderID: created.ID,
		OrderNo: created.OrderNo,
		Totals:  created.Totals(),
		Status:  string(created.Status),
	}, nil
}

// validate 持久化前的参数校验，返回合并重复商品后的明细（保持首次出现顺序）
func validate(req CreateOrderRequest) ([]CreateOrderItem, error) {
	if len(req.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}
	a := trimAddress(req.Address)
	if a.Line1 == "" || a.City == "" || a.State == "" || a.Phone == "" {
		return nil, order.ErrInvalidAddress
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.GiftMessage)) > maxGiftMessageLen {
		return nil, order.ErrGiftMessageTooLong
	}

	merged := make([]CreateOrderItem, 0, len(req.Items))
	index := make(map[string]int, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, order.ErrInvalidQuantity
		}
		if it.Quantity > maxItemQuantity {
			return nil, order.QuantityTooLargeError(maxItemQuantity)
		}
		if it.ProductID == "" {
			return nil, product.NotFoundError(it.ProductID)
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			if merged[i].Quantity > maxItemQuantity {
				return nil, order.QuantityTooLargeError(maxItemQuantity)
			}
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

func trimAddress(a order.Address) order.Address {
	return order.Address{
		Line1: strings.TrimSpace(a.Line1),
		City:  strings.TrimSpace(a.City),
		State: strings.TrimSpace(a.State),
		Phone: strings.TrimSpace(a.Phone),
	}
}
