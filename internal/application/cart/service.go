// Package cart 购物车用例
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// ErrInvalidProductID 商品ID格式非法
var ErrInvalidProductID = apperrors.New(apperrors.ErrCodeInvalidParams, "invalid product id")

// Service 购物车服务
// 修改操作不查商品目录；Summary才关联目录并计算金额
type Service struct {
	store    cart.Store
	products product.Repository
	shipping pricing.ShippingPolicy
	logger   *zap.Logger
}

// NewService 创建购物车服务
func NewService(store cart.Store, products product.Repository, shipping pricing.ShippingPolicy, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		products: products,
		shipping: shipping,
		logger:   logger.Named("cart"),
	}
}

// Get 读取购物车，内容损坏时返回空购物车
func (s *Service) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	if sessionID == "" {
		return cart.New(nil), nil
	}
	raw, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cart.ErrCorrupt) {
			s.logger.Warn("购物车数据损坏，按空购物车处理", zap.String("session_id", sessionID), zap.Error(err))
			return cart.New(nil), nil
		}
		return nil, err
	}
	return cart.New(raw), nil
}

// Add 加入商品
func (s *Service) Add(ctx context.Context, sessionID, productID string, qty int) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, productID, func(c *cart.Cart) { c.Add(productID, qty) })
}

// Update 修改数量，<=0即移除
func (s *Service) Update(ctx context.Context, sessionID, productID string, qty int) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, productID, func(c *cart.Cart) { c.Update(productID, qty) })
}

// Remove 移除商品
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, productID, func(c *cart.Cart) { c.Remove(productID) })
}

// Clear 清空购物车（幂等）
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) mutate(ctx context.Context, sessionID, productID string, fn func(c *cart.Cart)) (*cart.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "missing cart session")
	}
	if uuid.Validate(productID) != nil {
		return nil, ErrInvalidProductID
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fn(c)
	if err := s.store.Save(ctx, sessionID, c.Items); err != nil {
		return nil, err
	}
	return c, nil
}

// SummaryLine 购物车行（已关联目录）
type SummaryLine struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Brand        string `json:"brand"`
	ImageURL     string `json:"image_url"`
	PriceNGN     int64  `json:"price_ngn"`
	Quantity     int    `json:"quantity"`
	LineTotalNGN int64  `json:"line_total_ngn"`
	Stock        int    `json:"stock"`
}

// Summary 购物车汇总，Totals不含折扣
type Summary struct {
	Items  []SummaryLine  `json:"items"`
	Count  int            `json:"count"`
	Totals pricing.Totals `json:"totals"`
}

// Summary 关联当前目录计算汇总，已下架或不存在的商品静默过滤
// state为收货州，用于估算运费；为空时按默认运费
func (s *Service) Summary(ctx context.Context, sessionID, state string) (*Summary, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Items: []SummaryLine{}}
	if c.IsEmpty() {
		return summary, nil
	}

	found, err := s.products.FindActiveByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		summary.Items = append(summary.Items, SummaryLine{
			ProductID:    p.ID,
			Name:         p.Name,
			Slug:         p.Slug,
			Brand:        p.Brand,
			ImageURL:     p.ImageURL,
			PriceNGN:     p.PriceNGN,
			Quantity:     it.Quantity,
			LineTotalNGN: p.PriceNGN * int64(it.Quantity),
			Stock:        p.Stock,
		})
		summary.Count += it.Quantity
		lines = append(lines, pricing.Line{PriceNGN: p.PriceNGN, Quantity: it.Quantity})
	}
	if len(lines) == 0 {
		return summary, nil
	}

	subtotal := pricing.Subtotal(lines)
	summary.Totals = pricing.ComputeTotals(lines, 0, s.shipping.Quote(state, subtotal))
	return summary, nil
}
