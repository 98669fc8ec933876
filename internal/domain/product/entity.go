package product

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product 商品(聚合根)
// 1. 价格为整数奈拉（NGN）
// 2. Slug业务唯一（数据库唯一索引保证）
// 3. DeletedAt非nil表示已下架（软删除），下单和购物车汇总时视为不存在
type Product struct {
	ID          string
	Name        string
	Slug        string
	Brand       string
	PriceNGN    int64
	Stock       int
	ImageURL    string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// NewProduct 创建商品(工厂方法)，调用方需先校验参数
func NewProduct(name, slug, brand string, priceNGN int64, stock int, imageURL, description string) *Product {
	now := time.Now()
	if slug == "" {
		slug = Slugify(name)
	}
	return &Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Slug:        slug,
		Brand:       strings.TrimSpace(brand),
		PriceNGN:    priceNGN,
		Stock:       stock,
		ImageURL:    imageURL,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdatePrice 改价，只影响之后的订单（已下单的价格有快照）
func (p *Product) UpdatePrice(priceNGN int64) error {
	if priceNGN <= 0 {
		return ErrInvalidPrice
	}
	p.PriceNGN = priceNGN
	p.UpdatedAt = time.Now()
	return nil
}

// SetStock 盘点设置库存
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	return nil
}

// UpdateInfo 更新基本信息，空字符串表示不修改
func (p *Product) UpdateInfo(name, brand, imageURL, description string) {
	if name != "" {
		p.Name = strings.TrimSpace(name)
	}
	if brand != "" {
		p.Brand = strings.TrimSpace(brand)
	}
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	if description != "" {
		p.Description = description
	}
	p.UpdatedAt = time.Now()
}

// IsDeleted 是否已下架
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// HasStock 库存是否满足quantity
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify "Oud Royale 100ml" -> "oud-royale-100ml"
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidSlug slug格式是否合法
func ValidSlug(s string) bool {
	return len(s) <= 120 && slugPattern.MatchString(s)
}
