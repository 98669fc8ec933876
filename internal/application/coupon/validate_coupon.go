// Package coupon 优惠券校验与管理端用例
package coupon

import (
	"context"
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
)

// ValidateCouponUseCase 结算页校验优惠券
// 只读，不核销；核销在下单事务里完成
type ValidateCouponUseCase struct {
	repo coupon.Repository
	now  func() time.Time
}

// NewValidateCouponUseCase 创建校验用例
func NewValidateCouponUseCase(repo coupon.Repository) *ValidateCouponUseCase {
	return &ValidateCouponUseCase{repo: repo, now: time.Now}
}

// ValidateCouponRequest 校验请求
type ValidateCouponRequest struct {
	Code        string
	SubtotalNGN int64
}

// ValidateCouponResponse 校验通过时的折扣
type ValidateCouponResponse struct {
	CouponID    string `json:"coupon_id"`
	Code        string `json:"code"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	DiscountNGN int64  `json:"discount_ngn"`
}

// Execute 校验券码
// 拒绝顺序：NotFound -> Inactive -> Expired -> UsageLimitReached -> BelowMinimumSubtotal
func (uc *ValidateCouponUseCase) Execute(ctx context.Context, req ValidateCouponRequest) (*ValidateCouponResponse, error) {
	if req.SubtotalNGN < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "subtotal must not be negative")
	}

	resp, err := uc.evaluate(ctx, coupon.NormalizeCode(req.Code), req.SubtotalNGN)
	if err != nil {
		metrics.CouponRejectionsTotal.WithLabelValues(coupon.Reason(err)).Inc()
		return nil, err
	}
	return resp, nil
}

func (uc *ValidateCouponUseCase) evaluate(ctx context.Context, code string, subtotal int64) (*ValidateCouponResponse, error) {
	if code == "" {
		return nil, coupon.ErrNotFound
	}
	c, err := uc.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	discount, err := c.Evaluate(uc.now(), subtotal)
	if err != nil {
		return nil, err
	}
	return &ValidateCouponResponse{
		CouponID:    c.ID,
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value,
		DiscountNGN: discount,
	}, nil
}
