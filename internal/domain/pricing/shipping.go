package pricing

import "strings"

// ShippingPolicy 运费规则
//
//  1. FreeOverNGN>0 且 subtotal >= FreeOverNGN 时免运费
//  2. 按州匹配StateFees（大小写、首尾空格不敏感）
//  3. 其余使用FlatFeeNGN
type ShippingPolicy struct {
	FlatFeeNGN  int64
	FreeOverNGN int64
	StateFees   map[string]int64
}

// NewShippingPolicy 创建运费规则，州名统一转小写
func NewShippingPolicy(flatFee, freeOver int64, stateFees map[string]int64) ShippingPolicy {
	fees := make(map[string]int64, len(stateFees))
	for state, fee := range stateFees {
		fees[normalizeState(state)] = fee
	}
	return ShippingPolicy{FlatFeeNGN: flatFee, FreeOverNGN: freeOver, StateFees: fees}
}

// Quote 计算运费
func (p ShippingPolicy) Quote(state string, subtotalNGN int64) int64 {
	if p.FreeOverNGN > 0 && subtotalNGN >= p.FreeOverNGN {
		return 0
	}
	if fee, ok := p.StateFees[normalizeState(state)]; ok {
		return fee
	}
	return p.FlatFeeNGN
}

func normalizeState(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
