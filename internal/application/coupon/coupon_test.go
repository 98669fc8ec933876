package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	"github.com/xiebiao/perfumestore/internal/testutil/memory"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, *ValidateCouponUseCase, *ManageCouponsUseCase) {
	t.Helper()
	store := memory.NewStore()
	v := NewValidateCouponUseCase(store.Coupons())
	v.now = func() time.Time { return now }
	return store, v, NewManageCouponsUseCase(store.Coupons())
}

func TestValidateCoupon(t *testing.T) {
	store, uc, _ := setup(t)

	percent, err := coupon.NewCoupon("SAVE10", coupon.TypePercent, 10)
	require.NoError(t, err)
	store.PutCoupon(percent)

	t.Run("百分比折扣", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), ValidateCouponRequest{Code: " save10 ", SubtotalNGN: 50000})
		require.NoError(t, err)
		assert.Equal(t, int64(5000), resp.DiscountNGN)
		assert.Equal(t, percent.ID, resp.CouponID)
		assert.Equal(t, "SAVE10", resp.Code)
	})

	t.Run("校验不核销", func(t *testing.T) {
		assert.Equal(t, 0, store.Coupon(percent.ID).UsedCount)
	})

	t.Run("空券码", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), ValidateCouponRequest{Code: "  ", SubtotalNGN: 100})
		assert.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), ValidateCouponRequest{Code: "NOPE", SubtotalNGN: 100})
		assert.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("负数小计", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), ValidateCouponRequest{Code: "SAVE10", SubtotalNGN: -1})
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestValidateCoupon_RejectionReasons(t *testing.T) {
	store, uc, _ := setup(t)
	past := now.Add(-time.Hour)
	one := 1
	minSubtotal := int64(30000)

	add := func(code string, mutate func(c *coupon.Coupon)) {
		c, err := coupon.NewCoupon(code, coupon.TypeFixed, 1000)
		require.NoError(t, err)
		mutate(c)
		store.PutCoupon(c)
	}
	add("OFF", func(c *coupon.Coupon) { c.Active = false })
	add("OLD", func(c *coupon.Coupon) { c.EndsAt = &past })
	add("USED", func(c *coupon.Coupon) {
		c.MaxUses = &one
		c.UsedCount = 1
	})
	add("BIG", func(c *coupon.Coupon) { c.MinSubtotal = &minSubtotal })

	tests := []struct {
		code string
		want error
	}{
		{"OFF", coupon.ErrInactive},
		{"OLD", coupon.ErrExpired},
		{"USED", coupon.ErrUsageLimitReached},
		{"BIG", coupon.ErrBelowMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), ValidateCouponRequest{Code: tt.code, SubtotalNGN: 20000})
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.IsKind(err, apperrors.KindStateConflict) || apperrors.IsKind(err, apperrors.KindNotFound))
		})
	}
}

func TestManageCoupons(t *testing.T) {
	store, _, uc := setup(t)
	maxUses := 10

	created, err := uc.Create(context.Background(), CreateCouponRequest{
		Code: "welcome", Type: "FIXED", Value: 2000, Active: true, MaxUses: &maxUses,
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", created.Code)
	assert.True(t, created.Active)

	t.Run("券码重复", func(t *testing.T) {
		_, err := uc.Create(context.Background(), CreateCouponRequest{Code: "Welcome", Type: "FIXED", Value: 1, Active: true})
		assert.ErrorIs(t, err, coupon.ErrCodeDuplicate)
	})

	t.Run("非法配置", func(t *testing.T) {
		_, err := uc.Create(context.Background(), CreateCouponRequest{Code: "PCT", Type: "PERCENT", Value: 150})
		assert.ErrorIs(t, err, coupon.ErrInvalidValue)
		_, err = uc.Create(context.Background(), CreateCouponRequest{Code: "X", Type: "BOGO", Value: 1})
		assert.ErrorIs(t, err, coupon.ErrInvalidType)
	})

	t.Run("修改不影响已使用次数", func(t *testing.T) {
		require.NoError(t, store.Coupons().Redeem(context.Background(), created.ID))

		updated, err := uc.Update(context.Background(), UpdateCouponRequest{ID: created.ID, Active: false, Value: 3000, MaxUses: &maxUses})
		require.NoError(t, err)
		assert.False(t, updated.Active)
		assert.Equal(t, int64(3000), updated.Value)
		assert.Equal(t, 1, store.Coupon(created.ID).UsedCount)
	})

	t.Run("上限不能低于已使用次数", func(t *testing.T) {
		require.NoError(t, store.Coupons().Redeem(context.Background(), created.ID))
		one := 1

		_, err := uc.Update(context.Background(), UpdateCouponRequest{ID: created.ID, Active: true, Value: 3000, MaxUses: &one})
		assert.ErrorIs(t, err, coupon.ErrMaxUsesBelowUsed)
		assert.Equal(t, 10, *store.Coupon(created.ID).MaxUses)
		assert.Equal(t, 2, store.Coupon(created.ID).UsedCount)
	})

	t.Run("修改不存在的券", func(t *testing.T) {
		_, err := uc.Update(context.Background(), UpdateCouponRequest{ID: "missing", Value: 1})
		assert.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("列表", func(t *testing.T) {
		resp, err := uc.List(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
		assert.Equal(t, 20, resp.PageSize)
	})
}
