package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
)

// CartStore 内存购物车存储
type CartStore struct {
	mu      sync.Mutex
	carts   map[string][]cart.Item
	corrupt map[string]bool
}

// NewCartStore 创建内存购物车存储
func NewCartStore() *CartStore {
	return &CartStore{carts: map[string][]cart.Item{}, corrupt: map[string]bool{}}
}

// Corrupt 模拟存储内容无法解析
func (s *CartStore) Corrupt(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt[sessionID] = true
}

// Raw 直接写入原始条目（可包含非法数据）
func (s *CartStore) Raw(sessionID string, items []cart.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = append([]cart.Item(nil), items...)
}

func (s *CartStore) Load(ctx context.Context, sessionID string) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corrupt[sessionID] {
		return nil, cart.ErrCorrupt
	}
	return append([]cart.Item(nil), s.carts[sessionID]...), nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, items []cart.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.corrupt, sessionID)
	s.carts[sessionID] = append([]cart.Item(nil), items...)
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.corrupt, sessionID)
	delete(s.carts, sessionID)
	return nil
}
