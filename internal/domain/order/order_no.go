package order

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateOrderNo 生成订单号
// 格式：PFM + yyyyMMddHHmmss + 6位随机数，如 PFM20241201153045004217
// 唯一性最终由数据库唯一索引保证，冲突概率极低
func GenerateOrderNo() string {
	return generateOrderNo(time.Now())
}

func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("PFM%s%06d", now.Format("20060102150405"), rand.Intn(1000000))
}
