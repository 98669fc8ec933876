package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) coupon.Repository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if err := conn(ctx, r.db).Create(toCouponModel(c)).Error; err != nil {
		if isDuplicateError(err) {
			return coupon.ErrCodeDuplicate
		}
		return apperrors.Wrap(err, "创建优惠券失败")
	}
	return nil
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *couponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *couponRepository) findOne(ctx context.Context, query, arg string) (*coupon.Coupon, error) {
	var model CouponModel
	if err := conn(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, coupon.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "查询优惠券失败")
	}
	return toCouponEntity(&model), nil
}

// Update 不写used_count，避免覆盖并发核销的结果
// Select显式列出字段，nil指针也会写成NULL
// 设置了max_uses时带上used_count <= max_uses条件，防止读取后被并发核销超过新上限
func (r *couponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	model := toCouponModel(c)
	query := conn(ctx, r.db).Model(&CouponModel{ID: c.ID})
	if c.MaxUses != nil {
		query = query.Where("used_count <= ?", *c.MaxUses)
	}
	result := query.
		Select("active", "value", "starts_at", "ends_at", "max_uses", "min_subtotal", "updated_at").
		Updates(model)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新优惠券失败")
	}
	if result.RowsAffected == 0 {
		if c.MaxUses == nil {
			return coupon.ErrNotFound
		}
		var count int64
		if err := conn(ctx, r.db).Model(&CouponModel{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询优惠券失败")
		}
		if count == 0 {
			return coupon.ErrNotFound
		}
		return coupon.ErrMaxUsesBelowUsed
	}
	return nil
}

func (r *couponRepository) List(ctx context.Context, page, pageSize int) ([]*coupon.Coupon, int64, error) {
	query := conn(ctx, r.db).Model(&CouponModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询优惠券总数失败")
	}

	var models []CouponModel
	err := query.Order("code ASC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询优惠券列表失败")
	}

	out := make([]*coupon.Coupon, len(models))
	for i := range models {
		out[i] = toCouponEntity(&models[i])
	}
	return out, total, nil
}

// Redeem UPDATE coupons SET used_count = used_count + 1
// WHERE id = ? AND (max_uses IS NULL OR used_count < max_uses)
func (r *couponRepository) Redeem(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Model(&CouponModel{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "核销优惠券失败")
	}
	if result.RowsAffected == 0 {
		// 区分券不存在和次数用尽
		var count int64
		if err := conn(ctx, r.db).Model(&CouponModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询优惠券失败")
		}
		if count == 0 {
			return coupon.ErrNotFound
		}
		return coupon.ErrUsageLimitReached
	}
	return nil
}

func toCouponModel(c *coupon.Coupon) *CouponModel {
	return &CouponModel{
		ID:          c.ID,
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value,
		Active:      c.Active,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		MaxUses:     c.MaxUses,
		UsedCount:   c.UsedCount,
		MinSubtotal: c.MinSubtotal,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCouponEntity(m *CouponModel) *coupon.Coupon {
	return &coupon.Coupon{
		ID:          m.ID,
		Code:        m.Code,
		Type:        coupon.Type(m.Type),
		Value:       m.Value,
		Active:      m.Active,
		StartsAt:    m.StartsAt,
		EndsAt:      m.EndsAt,
		MaxUses:     m.MaxUses,
		UsedCount:   m.UsedCount,
		MinSubtotal: m.MinSubtotal,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
