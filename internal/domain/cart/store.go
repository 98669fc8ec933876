package cart

import (
	"context"
	"errors"
)

// ErrCorrupt 存储内容无法解析，调用方按空购物车处理
var ErrCorrupt = errors.New("cart payload is corrupt")

// Store 购物车存储（按会话ID）
type Store interface {
	// Load 读取原始条目；不存在返回空切片；格式不对的单条丢弃，整体无法解析返回ErrCorrupt
	Load(ctx context.Context, sessionID string) ([]Item, error)

	// Save 覆盖保存并刷新过期时间
	Save(ctx context.Context, sessionID string, items []Item) error

	// Delete 删除购物车，key不存在不是错误
	Delete(ctx context.Context, sessionID string) error
}
