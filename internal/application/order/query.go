package order

import (
	"context"

	"github.com/xiebiao/perfumestore/internal/domain/order"
)

// QueryUseCase 订单查询（客户看自己的，管理员看全部）
type QueryUseCase struct {
	orderRepo order.Repository
}

// NewQueryUseCase 创建订单查询用例
func NewQueryUseCase(orderRepo order.Repository) *QueryUseCase {
	return &QueryUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest 分页参数，Status只对管理端生效
type ListOrdersRequest struct {
	Page     int
	PageSize int
	Status   string
}

func (r *ListOrdersRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// GetForUser 查看自己的订单，别人的订单按不存在处理
func (uc *QueryUseCase) GetForUser(ctx context.Context, userID, orderID string) (*OrderDTO, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, order.ErrOrderNotFound
	}
	dto := ToDTO(o)
	return &dto, nil
}

// ListForUser 我的订单
func (uc *QueryUseCase) ListForUser(ctx context.Context, userID string, req ListOrdersRequest) (*ListOrdersResponse, error) {
	req.normalize()
	orders, total, err := uc.orderRepo.ListByUserID(ctx, userID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return newListResponse(orders, total, req.Page, req.PageSize), nil
}

// ListAll 管理端订单列表，Status为空表示全部
func (uc *QueryUseCase) ListAll(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	req.normalize()
	var status order.Status
	if req.Status != "" {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	orders, total, err := uc.orderRepo.List(ctx, status, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return newListResponse(orders, total, req.Page, req.PageSize), nil
}

// Get 管理端查看任意订单
func (uc *QueryUseCase) Get(ctx context.Context, orderID string) (*OrderDTO, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(o)
	return &dto, nil
}
