package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/perfumestore/internal/domain/product"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// productRepository 商品仓储(MySQL)
// 库存扣减用条件UPDATE，不依赖先读后写
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	if err := conn(ctx, r.db).Create(toProductModel(p)).Error; err != nil {
		if isDuplicateError(err) {
			return product.ErrSlugDuplicate
		}
		return apperrors.Wrap(err, "创建商品失败")
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg string) (*product.Product, error) {
	var model ProductModel
	if err := conn(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

// Update 更新可编辑字段
func (r *productRepository) Update(ctx context.Context, p *product.Product) error {
	result := conn(ctx, r.db).Model(&ProductModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"slug":        p.Slug,
		"brand":       p.Brand,
		"price_ngn":   p.PriceNGN,
		"stock":       p.Stock,
		"image_url":   p.ImageURL,
		"description": p.Description,
		"updated_at":  p.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return product.ErrSlugDuplicate
		}
		return apperrors.Wrap(result.Error, "更新商品失败")
	}
	if result.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// Delete 软删除（UPDATE deleted_at），已下架的再删返回不存在
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&ProductModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "下架商品失败")
	}
	if result.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	params.Normalize()

	query := conn(ctx, r.db).Model(&ProductModel{})
	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("name LIKE ? OR brand LIKE ?", kw, kw)
	}
	if params.Brand != "" {
		// 默认collation大小写不敏感
		query = query.Where("brand = ?", params.Brand)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	var models []ProductModel
	err := query.Order(sortClause(params.SortBy)).
		Limit(params.PageSize).
		Offset(offset(params.Page, params.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	return toProductEntities(models), total, nil
}

func sortClause(sortBy string) string {
	switch sortBy {
	case "price_asc":
		return "price_ngn ASC, id ASC"
	case "price_desc":
		return "price_ngn DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *productRepository) FindActiveByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ProductModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询商品失败")
	}
	return toProductEntities(models), nil
}

// LockActiveByIDs SELECT ... FOR UPDATE
// 按id排序加锁，并发下单时加锁顺序一致，避免死锁
func (r *productRepository) LockActiveByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ProductModel
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}
	return toProductEntities(models), nil
}

// DecrementStock UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?
func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}
	result := conn(ctx, r.db).Model(&ProductModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减库存失败")
	}
	if result.RowsAffected == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

// IncrementStock 回补库存，已下架的商品也要回补
func (r *productRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}
	result := conn(ctx, r.db).Unscoped().Model(&ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "回补库存失败")
	}
	if result.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func toProductModel(p *product.Product) *ProductModel {
	m := &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Brand:       p.Brand,
		PriceNGN:    p.PriceNGN,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	}
	return m
}

func toProductEntity(m *ProductModel) *product.Product {
	p := &product.Product{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Brand:       m.Brand,
		PriceNGN:    m.PriceNGN,
		Stock:       m.Stock,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		p.DeletedAt = &t
	}
	return p
}

func toProductEntities(models []ProductModel) []*product.Product {
	out := make([]*product.Product, len(models))
	for i := range models {
		out[i] = toProductEntity(&models[i])
	}
	return out
}
