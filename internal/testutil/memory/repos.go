package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/perfumestore/internal/domain/coupon"
	"github.com/xiebiao/perfumestore/internal/domain/notification"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/domain/user"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

// ---------- product ----------

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.products {
		if existing.Slug == p.Slug {
			return product.ErrSlugDuplicate
		}
	}
	r.s.data.products[p.ID] = *p
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok || p.IsDeleted() {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (r *productRepo) FindBySlug(ctx context.Context, slug string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.products {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, product.ErrProductNotFound
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	r.s.data.products[p.ID] = *p
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok || p.IsDeleted() {
		return product.ErrProductNotFound
	}
	p.DeletedAt = timePtr(time.Now())
	r.s.data.products[id] = p
	return nil
}

func (r *productRepo) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*product.Product
	kw := strings.ToLower(params.Keyword)
	for _, p := range r.s.data.products {
		if p.IsDeleted() {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Brand), kw) {
			continue
		}
		if params.Brand != "" && !strings.EqualFold(p.Brand, params.Brand) {
			continue
		}
		cp := p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		switch params.SortBy {
		case "price_asc":
			return all[i].PriceNGN < all[j].PriceNGN
		case "price_desc":
			return all[i].PriceNGN > all[j].PriceNGN
		default:
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
	})
	return page(all, params.Page, params.PageSize), int64(len(all)), nil
}

func (r *productRepo) FindActiveByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*product.Product
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok && !p.IsDeleted() {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *productRepo) LockActiveByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	if err := r.s.fail("product.lock"); err != nil {
		return nil, err
	}
	return r.FindActiveByIDs(ctx, ids)
}

func (r *productRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok || p.IsDeleted() {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return product.ErrInsufficientStock
	}
	p.Stock -= quantity
	r.s.data.products[id] = p
	return nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	p.Stock += quantity
	r.s.data.products[id] = p
	return nil
}

// ---------- coupon ----------

type couponRepo struct{ s *Store }

func (r *couponRepo) Create(ctx context.Context, c *coupon.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.coupons {
		if existing.Code == c.Code {
			return coupon.ErrCodeDuplicate
		}
	}
	r.s.data.coupons[c.ID] = *c
	return nil
}

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.coupons {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, coupon.ErrNotFound
}

func (r *couponRepo) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[id]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &c, nil
}

func (r *couponRepo) Update(ctx context.Context, c *coupon.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.coupons[c.ID]
	if !ok {
		return coupon.ErrNotFound
	}
	if c.MaxUses != nil && existing.UsedCount > *c.MaxUses {
		return coupon.ErrMaxUsesBelowUsed
	}
	next := *c
	next.UsedCount = existing.UsedCount
	r.s.data.coupons[c.ID] = next
	return nil
}

func (r *couponRepo) List(ctx context.Context, p, pageSize int) ([]*coupon.Coupon, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*coupon.Coupon
	for _, c := range r.s.data.coupons {
		cp := c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, p, pageSize), int64(len(all)), nil
}

func (r *couponRepo) Redeem(ctx context.Context, id string) error {
	if err := r.s.fail("coupon.redeem"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.coupons[id]
	if !ok {
		return coupon.ErrNotFound
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return coupon.ErrUsageLimitReached
	}
	c.UsedCount++
	r.s.data.coupons[id] = c
	return nil
}

// ---------- order ----------

type orderRepo struct{ s *Store }

func copyOrder(o order.Order) *order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	return &o
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	if err := r.s.fail("order.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.orders[o.ID] = *copyOrder(*o)
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *orderRepo) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.data.orders {
		if o.OrderNo == orderNo {
			return copyOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *orderRepo) filter(keep func(order.Order) bool, p, pageSize int) ([]*order.Order, int64) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*order.Order
	for _, o := range r.s.data.orders {
		if keep(o) {
			all = append(all, copyOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, p, pageSize), int64(len(all))
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID string, p, pageSize int) ([]*order.Order, int64, error) {
	list, total := r.filter(func(o order.Order) bool { return o.UserID == userID }, p, pageSize)
	return list, total, nil
}

func (r *orderRepo) List(ctx context.Context, status order.Status, p, pageSize int) ([]*order.Order, int64, error) {
	list, total := r.filter(func(o order.Order) bool { return status == "" || o.Status == status }, p, pageSize)
	return list, total, nil
}

func (r *orderRepo) CompareAndSetStatus(ctx context.Context, id string, from, to order.Status, paymentRef string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.data.orders[id]
	if !ok || o.Status != from {
		return order.ErrStatusConflict
	}
	o.Status = to
	if paymentRef != "" {
		o.PaymentReference = paymentRef
	}
	o.UpdatedAt = time.Now()
	r.s.data.orders[id] = o
	return nil
}

// ---------- payment ----------

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.payments[p.Reference]; ok {
		return apperrors.New(apperrors.ErrCodeDuplicateEntry, "duplicate payment reference")
	}
	r.s.data.payments[p.Reference] = *p
	return nil
}

func (r *paymentRepo) FindByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.payments[reference]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *paymentRepo) MarkPaid(ctx context.Context, reference string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.payments[reference]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	if p.Status != payment.StatusPaid {
		p.Status = payment.StatusPaid
		p.PaidAt = timePtr(time.Now())
		r.s.data.payments[reference] = p
	}
	return nil
}

func (r *paymentRepo) RecordEvent(ctx context.Context, e *payment.ProcessedEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := e.Reference + "|" + e.Event
	if _, ok := r.s.data.events[key]; ok {
		return payment.ErrDuplicateEvent
	}
	r.s.data.events[key] = *e
	return nil
}

// ---------- notification ----------

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *notification.AdminNotification) error {
	if err := r.s.fail("notification.create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) List(ctx context.Context, unreadOnly bool, p, pageSize int) ([]*notification.AdminNotification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*notification.AdminNotification
	for _, n := range r.s.data.notifications {
		if unreadOnly && n.IsRead() {
			continue
		}
		cp := n
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, p, pageSize), int64(len(all)), nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.notifications[id]
	if !ok {
		return notification.ErrNotificationNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.s.data.notifications[id] = n
	}
	return nil
}

// ---------- user ----------

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailDuplicate
		}
	}
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *userRepo) Update(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	r.s.data.users[u.ID] = *u
	return nil
}
