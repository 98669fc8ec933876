// Package cart 会话购物车
//
// 购物车只保存(productId, quantity)，不校验库存和商品是否存在，
// 这些检查留到下单时在事务内完成。
package cart

import (
	"github.com/google/uuid"
)

// Item 购物车条目
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart 购物车（值对象，保持加入顺序）
type Cart struct {
	Items []Item
}

// New 从存储读出的原始条目构建购物车（会先清洗）
func New(raw []Item) *Cart {
	return &Cart{Items: Sanitize(raw)}
}

// Sanitize 清洗条目：
//   - productId为空或不是合法uuid的丢弃
//   - quantity < 1的丢弃
//   - 重复productId合并数量，保留第一次出现的位置
func Sanitize(raw []Item) []Item {
	out := make([]Item, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, it := range raw {
		if it.Quantity < 1 || uuid.Validate(it.ProductID) != nil {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

// Add 加入商品，qty<1按1处理；已存在则累加
func (c *Cart) Add(productID string, qty int) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty})
}

// Update 设置数量，qty<=0等同Remove
func (c *Cart) Update(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: qty})
}

// Remove 移除商品（不存在时无操作）
func (c *Cart) Remove(productID string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// ProductIDs 按顺序返回商品ID
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// Count 商品总件数
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
