package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/perfumestore/internal/domain/pricing"
)

// Type 优惠类型
type Type string

const (
	TypePercent Type = "PERCENT" // 按百分比，Value取值1-100
	TypeFixed   Type = "FIXED"   // 固定金额（NGN）
)

// Valid 类型是否合法
func (t Type) Valid() bool {
	return t == TypePercent || t == TypeFixed
}

// Coupon 优惠券聚合根
// 不变量：MaxUses设置时 UsedCount <= *MaxUses；UsedCount只增不减
type Coupon struct {
	ID          string
	Code        string // 统一大写，唯一
	Type        Type
	Value       int64
	Active      bool
	StartsAt    *time.Time // nil表示不限开始时间
	EndsAt      *time.Time // nil表示不限结束时间
	MaxUses     *int       // nil表示不限次数
	UsedCount   int
	MinSubtotal *int64 // nil表示无门槛
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeCode 券码大小写不敏感，存储和查询都用大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCoupon 创建优惠券（UsedCount从0开始）
func NewCoupon(code string, typ Type, value int64) (*Coupon, error) {
	c := &Coupon{
		ID:     uuid.NewString(),
		Code:   NormalizeCode(code),
		Type:   typ,
		Value:  value,
		Active: true,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

// Validate 校验券本身的配置（管理端创建/修改时调用）
func (c *Coupon) Validate() error {
	if c.Code == "" || len(c.Code) > 32 {
		return ErrInvalidCode
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.Value <= 0 || (c.Type == TypePercent && c.Value > 100) {
		return ErrInvalidValue
	}
	if c.StartsAt != nil && c.EndsAt != nil && c.EndsAt.Before(*c.StartsAt) {
		return ErrInvalidWindow
	}
	if c.MaxUses != nil && *c.MaxUses < 0 {
		return ErrInvalidMaxUses
	}
	if c.MaxUses != nil && *c.MaxUses < c.UsedCount {
		return ErrMaxUsesBelowUsed
	}
	if c.MinSubtotal != nil && *c.MinSubtotal < 0 {
		return ErrInvalidMinSubtotal
	}
	return nil
}

// Evaluate 校验券能否用于subtotal并计算折扣
// 拒绝顺序：Inactive -> Expired -> UsageLimitReached -> BelowMinimumSubtotal
// （NotFound由调用方在查询时判断）
// 无副作用，不会修改UsedCount
func (c *Coupon) Evaluate(now time.Time, subtotalNGN int64) (int64, error) {
	if !c.Active {
		return 0, ErrInactive
	}
	if !c.InWindow(now) {
		return 0, ErrExpired
	}
	if c.Exhausted() {
		return 0, ErrUsageLimitReached
	}
	if c.MinSubtotal != nil && subtotalNGN < *c.MinSubtotal {
		return 0, newBelowMinimumError(*c.MinSubtotal)
	}
	return c.Discount(subtotalNGN), nil
}

// InWindow now是否在[StartsAt, EndsAt]内（闭区间）
func (c *Coupon) InWindow(now time.Time) bool {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}

// Exhausted 使用次数已满
func (c *Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// Discount 折扣金额，结果在[0, subtotal]
// PERCENT向下取整
func (c *Coupon) Discount(subtotalNGN int64) int64 {
	var d int64
	switch c.Type {
	case TypePercent:
		d = subtotalNGN * c.Value / 100
	case TypeFixed:
		d = c.Value
	}
	return pricing.ClampDiscount(d, subtotalNGN)
}

// Update 管理端修改（UsedCount不允许修改，MaxUses不能小于UsedCount）
func (c *Coupon) Update(active bool, value int64, startsAt, endsAt *time.Time, maxUses *int, minSubtotal *int64) error {
	next := *c
	next.Active = active
	next.Value = value
	next.StartsAt = startsAt
	next.EndsAt = endsAt
	next.MaxUses = maxUses
	next.MinSubtotal = minSubtotal
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*c = next
	return nil
}
