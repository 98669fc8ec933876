package product

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// 管理端价格上限（NGN）
const maxPriceNGN = 100_000_000

// Service 商品领域服务（管理端规则）
type Service interface {
	// Create 上架商品
	// 规则：名称1-200字符；slug合法且唯一（为空时由名称生成）；价格>0；库存>=0
	Create(ctx context.Context, name, slug, brand string, priceNGN int64, stock int, imageURL, description string) (*Product, error)

	Get(ctx context.Context, id string) (*Product, error)

	// Update 修改信息/价格/库存，nil表示不修改
	Update(ctx context.Context, id string, in UpdateInput) (*Product, error)

	Delete(ctx context.Context, id string) error

	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

// UpdateInput 管理端修改项
type UpdateInput struct {
	Name        string
	Brand       string
	ImageURL    string
	Description string
	PriceNGN    *int64
	Stock       *int
}

type service struct {
	repo Repository
}

// NewService 创建商品领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name, slug, brand string, priceNGN int64, stock int, imageURL, description string) (*Product, error) {
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n == 0 || n > 200 {
		return nil, ErrInvalidName
	}
	if priceNGN < 1 || priceNGN > maxPriceNGN {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	p := NewProduct(name, strings.ToLower(strings.TrimSpace(slug)), brand, priceNGN, stock, imageURL, description)
	if !ValidSlug(p.Slug) {
		return nil, ErrInvalidSlug
	}

	existing, err := s.repo.FindBySlug(ctx, p.Slug)
	if err == nil && existing != nil {
		return nil, ErrSlugDuplicate
	}
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}

	// 并发情况下仍可能撞唯一索引，Repository会转成ErrSlugDuplicate
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != "" && utf8.RuneCountInString(in.Name) > 200 {
		return nil, ErrInvalidName
	}
	if in.PriceNGN != nil {
		if *in.PriceNGN > maxPriceNGN {
			return nil, ErrInvalidPrice
		}
		if err := p.UpdatePrice(*in.PriceNGN); err != nil {
			return nil, err
		}
	}
	if in.Stock != nil {
		if err := p.SetStock(*in.Stock); err != nil {
			return nil, err
		}
	}
	p.UpdateInfo(in.Name, in.Brand, in.ImageURL, in.Description)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) ([]*Product, int64, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}
