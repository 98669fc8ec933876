package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/perfumestore/internal/domain/cart"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// CartStore 购物车存储
// cart:{sessionID} -> JSON数组 [{"productId": "...", "quantity": 2}]，每次写入刷新TTL
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore 创建购物车存储
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

var _ cart.Store = (*CartStore)(nil)

func cartKey(sessionID string) string { return "cart:" + sessionID }

func (s *CartStore) Load(ctx context.Context, sessionID string) ([]cart.Item, error) {
	val, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []cart.Item{}, nil
		}
		return nil, apperrors.Wrap(err, "读取购物车失败")
	}

	return cart.Decode(val)
}

func (s *CartStore) Save(ctx context.Context, sessionID string, items []cart.Item) error {
	if items == nil {
		items = []cart.Item{}
	}
	val, err := json.Marshal(items)
	if err != nil {
		return apperrors.Wrap(err, "序列化购物车失败")
	}
	if err := s.client.Set(ctx, cartKey(sessionID), val, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "保存购物车失败")
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return apperrors.Wrap(err, "删除购物车失败")
	}
	return nil
}
