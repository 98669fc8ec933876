// Package memory 内存版仓储，仅供测试使用
//
// 所有仓储共享一个Store。Transaction串行执行并在出错时回滚到快照，
// 用来在单元测试里模拟MySQL事务和并发下单。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	"github.com/xiebiao/perfumestore/internal/domain/notification"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/domain/user"
)

type state struct {
	products      map[string]product.Product
	coupons       map[string]coupon.Coupon
	orders        map[string]order.Order
	payments      map[string]payment.Payment // key: reference
	events        map[string]payment.ProcessedEvent
	notifications map[string]notification.AdminNotification
	users         map[string]user.User
}

func newState() state {
	return state{
		products:      map[string]product.Product{},
		coupons:       map[string]coupon.Coupon{},
		orders:        map[string]order.Order{},
		payments:      map[string]payment.Payment{},
		events:        map[string]payment.ProcessedEvent{},
		notifications: map[string]notification.AdminNotification{},
		users:         map[string]user.User{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]order.Item(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// Store 内存数据
type Store struct {
	txMu sync.Mutex // 串行化事务
	mu   sync.Mutex // 保护data
	data state

	// Fail 按操作名注入错误，如 "notification.create"
	Fail map[string]error
}

// NewStore 创建空Store
func NewStore() *Store {
	return &Store{data: newState(), Fail: map[string]error{}}
}

// Transaction 串行执行fn，fn返回错误时回滚全部修改
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Fail[op]
}

// Products 商品仓储
func (s *Store) Products() product.Repository { return &productRepo{s} }

// Coupons 优惠券仓储
func (s *Store) Coupons() coupon.Repository { return &couponRepo{s} }

// Orders 订单仓储
func (s *Store) Orders() order.Repository { return &orderRepo{s} }

// Payments 支付仓储
func (s *Store) Payments() payment.Repository { return &paymentRepo{s} }

// Notifications 通知仓储
func (s *Store) Notifications() notification.Repository { return &notificationRepo{s} }

// Users 用户仓储
func (s *Store) Users() user.Repository { return &userRepo{s} }

// PutProduct 直接写入商品（准备测试数据）
func (s *Store) PutProduct(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = *p
}

// PutCoupon 直接写入优惠券
func (s *Store) PutCoupon(c *coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.coupons[c.ID] = *c
}

// PutOrder 直接写入订单
func (s *Store) PutOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	cp.Items = append([]order.Item(nil), o.Items...)
	s.data.orders[o.ID] = cp
}

// Product 读取商品当前状态（含已下架）
func (s *Store) Product(id string) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id]
}

// Coupon 读取优惠券当前状态
func (s *Store) Coupon(id string) coupon.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.coupons[id]
}

// OrderCount 订单数量
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

// AllNotifications 全部通知
func (s *Store) AllNotifications() []notification.AdminNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.AdminNotification, 0, len(s.data.notifications))
	for _, n := range s.data.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func page[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(items)
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func timePtr(t time.Time) *time.Time { return &t }
