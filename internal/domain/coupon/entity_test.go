package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

func intPtr(v int) *int       { return &v }
func i64Ptr(v int64) *int64   { return &v }
func timePtr(t time.Time) *time.Time { return &t }

var now = time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
}

func TestNewCoupon(t *testing.T) {
	c, err := NewCoupon("xmas", TypePercent, 10)
	require.NoError(t, err)
	assert.Equal(t, "XMAS", c.Code)
	assert.True(t, c.Active)
	assert.Zero(t, c.UsedCount)
	assert.NotEmpty(t, c.ID)

	_, err = NewCoupon("BAD", TypePercent, 150)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = NewCoupon("BAD", Type("BOGO"), 1)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = NewCoupon("   ", TypeFixed, 1)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCoupon_Discount(t *testing.T) {
	percent := &Coupon{Type: TypePercent, Value: 10}
	assert.Equal(t, int64(5000), percent.Discount(50000))
	assert.Equal(t, int64(99), percent.Discount(999)) // 向下取整

	fixed := &Coupon{Type: TypeFixed, Value: 8000}
	assert.Equal(t, int64(8000), fixed.Discount(50000))
	assert.Equal(t, int64(3000), fixed.Discount(3000)) // 不超过小计
	assert.Equal(t, int64(0), fixed.Discount(0))
}

func TestCoupon_DiscountNeverOutsideSubtotal(t *testing.T) {
	coupons := []*Coupon{
		{Type: TypePercent, Value: 1},
		{Type: TypePercent, Value: 100},
		{Type: TypeFixed, Value: 1},
		{Type: TypeFixed, Value: 1_000_000},
	}
	for _, c := range coupons {
		for _, subtotal := range []int64{0, 1, 99, 5000, 123456} {
			d, err := c.Evaluate(now, subtotal)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, d, int64(0))
			assert.LessOrEqual(t, d, subtotal)
		}
	}
}

func TestCoupon_EvaluateRejections(t *testing.T) {
	base := func() *Coupon {
		return &Coupon{Code: "VIP", Type: TypeFixed, Value: 1000, Active: true}
	}

	t.Run("未启用", func(t *testing.T) {
		c := base()
		c.Active = false
		c.MaxUses = intPtr(0) // 同时满足多个条件时按顺序返回第一个
		_, err := c.Evaluate(now, 5000)
		assert.ErrorIs(t, err, ErrInactive)
	})

	t.Run("尚未开始", func(t *testing.T) {
		c := base()
		c.StartsAt = timePtr(now.Add(time.Hour))
		_, err := c.Evaluate(now, 5000)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("已过期", func(t *testing.T) {
		c := base()
		c.EndsAt = timePtr(now.Add(-time.Second))
		c.MinSubtotal = i64Ptr(10000)
		_, err := c.Evaluate(now, 5000)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("边界时间可用", func(t *testing.T) {
		c := base()
		c.StartsAt = timePtr(now)
		c.EndsAt = timePtr(now)
		_, err := c.Evaluate(now, 5000)
		assert.NoError(t, err)
	})

	t.Run("次数已满", func(t *testing.T) {
		c := base()
		c.MaxUses = intPtr(3)
		c.UsedCount = 3
		c.MinSubtotal = i64Ptr(10000)
		_, err := c.Evaluate(now, 5000)
		assert.ErrorIs(t, err, ErrUsageLimitReached)
	})

	t.Run("未达门槛", func(t *testing.T) {
		c := base()
		c.MinSubtotal = i64Ptr(10000)
		_, err := c.Evaluate(now, 9999)
		assert.ErrorIs(t, err, ErrBelowMinimum)
		assert.Contains(t, err.Error(), "10000")

		d, err := c.Evaluate(now, 10000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), d)
	})
}

func TestCoupon_Update(t *testing.T) {
	c, err := NewCoupon("SPRING", TypeFixed, 1000)
	require.NoError(t, err)
	c.UsedCount = 4

	err = c.Update(false, 2000, nil, nil, intPtr(10), nil)
	require.NoError(t, err)
	assert.False(t, c.Active)
	assert.Equal(t, int64(2000), c.Value)
	assert.Equal(t, 4, c.UsedCount)

	err = c.Update(true, 2000, timePtr(now), timePtr(now.Add(-time.Hour)), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.False(t, c.Active) // 校验失败不修改

	err = c.Update(true, 2000, nil, nil, intPtr(3), nil)
	assert.ErrorIs(t, err, ErrMaxUsesBelowUsed)
	assert.Equal(t, ErrMaxUsesBelowUsed.Message, apperrors.GetAppError(err).Message)
	assert.Equal(t, 10, *c.MaxUses)

	// 上限等于已用次数可以
	require.NoError(t, c.Update(true, 2000, nil, nil, intPtr(4), nil))
	assert.True(t, c.Exhausted())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "expired", Reason(ErrExpired))
	assert.Equal(t, "below_minimum", Reason(newBelowMinimumError(100)))
	assert.Equal(t, "not_found", Reason(ErrNotFound))
}
