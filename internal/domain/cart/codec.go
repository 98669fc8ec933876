package cart

import (
	"bytes"
	"encoding/json"
	"math"
)

// rawItem 宽松解析单个条目，字段类型不对时整条丢弃
type rawItem struct {
	ProductID any `json:"productId"`
	Quantity  any `json:"quantity"`
}

// Decode 逐条解析存储内容
// 整体不是JSON数组时返回ErrCorrupt；单条格式不对只丢弃这一条
// quantity为小数时向下取整，取整后<1的由Sanitize丢弃
func Decode(payload []byte) ([]Item, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, ErrCorrupt
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if it, ok := decodeItem(entry); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func decodeItem(entry json.RawMessage) (Item, bool) {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()

	var raw rawItem
	if err := dec.Decode(&raw); err != nil {
		return Item{}, false
	}
	id, ok := raw.ProductID.(string)
	if !ok || id == "" {
		return Item{}, false
	}
	num, ok := raw.Quantity.(json.Number)
	if !ok {
		return Item{}, false
	}
	if n, err := num.Int64(); err == nil {
		if n > math.MaxInt32 || n < math.MinInt32 {
			return Item{}, false
		}
		return Item{ProductID: id, Quantity: int(n)}, true
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return Item{}, false
	}
	return Item{ProductID: id, Quantity: int(math.Floor(f))}, true
}
