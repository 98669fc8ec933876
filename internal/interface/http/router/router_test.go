package router

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appcart "github.com/xiebiao/perfumestore/internal/application/cart"
	appcoupon "github.com/xiebiao/perfumestore/internal/application/coupon"
	appnotify "github.com/xiebiao/perfumestore/internal/application/notify"
	apporder "github.com/xiebiao/perfumestore/internal/application/order"
	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	appproduct "github.com/xiebiao/perfumestore/internal/application/product"
	appuser "github.com/xiebiao/perfumestore/internal/application/user"
	"github.com/xiebiao/perfumestore/internal/domain/mail"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/domain/user"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/payment/paystack"
	"github.com/xiebiao/perfumestore/internal/interface/http/handler"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/internal/testutil/memory"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/jwt"
)

const (
	testSecret = "sk_test_router"
	adminEmail = "admin@perfumestore.ng"
)

// sessions 内存会话和黑名单
type sessions struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (s *sessions) SaveSession(ctx context.Context, userID string, data map[string]interface{}, ttl time.Duration) error {
	return nil
}

func (s *sessions) DeleteSession(ctx context.Context, userID string) error { return nil }

func (s *sessions) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
	return nil
}

func (s *sessions) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[token], nil
}

// outbox 记录发出的邮件
type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(ctx context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t       *testing.T
	engine  *gin.Engine
	store   *memory.Store
	outbox  *outbox
	gateway *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reference string `json:"reference"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/" + req.Reference,
				"access_code":       "ac_" + req.Reference,
				"reference":         req.Reference,
			},
		})
	}))
	t.Cleanup(gateway.Close)

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: gin.TestMode},
		Admin:   config.AdminConfig{Emails: []string{adminEmail}},
		Cart:    config.CartConfig{CookieName: "cart_sid", TTL: time.Hour},
		Payment: config.PaymentConfig{BaseURL: gateway.URL, SecretKey: testSecret, Timeout: 2 * time.Second},
	}

	store := memory.NewStore()
	carts := memory.NewCartStore()
	box := &outbox{}
	sess := &sessions{revoked: map[string]bool{}}
	jwtManager := jwt.NewManager("router-secret", time.Hour, 24*time.Hour)
	shipping := pricing.NewShippingPolicy(1500, 100000, map[string]int64{"Lagos": 1000})
	dispatcher := appnotify.NewDispatcher(box, store.Notifications(), logger)
	gw := paystack.New(cfg.Payment, logger)

	userService := user.NewService(store.Users(), bcrypt.MinCost)
	productService := product.NewService(store.Products())

	h := Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			appuser.NewLoginUseCase(userService, jwtManager, sess, 24*time.Hour, logger),
			appuser.NewLogoutUseCase(sess, time.Hour),
			appuser.NewRefreshTokenUseCase(jwtManager),
		),
		Product: handler.NewProductHandler(
			appproduct.NewListProductsUseCase(productService),
			appproduct.NewGetProductUseCase(productService),
			appproduct.NewManageProductsUseCase(productService, logger),
		),
		Cart: handler.NewCartHandler(appcart.NewService(carts, store.Products(), shipping, logger)),
		Coupon: handler.NewCouponHandler(
			appcoupon.NewValidateCouponUseCase(store.Coupons()),
			appcoupon.NewManageCouponsUseCase(store.Coupons()),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(store.Orders(), store.Products(), store.Coupons(), carts, store, shipping, dispatcher, logger),
			apporder.NewUpdateOrderStatusUseCase(store.Orders(), store.Products(), store, dispatcher, logger),
			apporder.NewQueryUseCase(store.Orders()),
			apppayment.NewInitializePaymentUseCase(store.Orders(), store.Payments(), gw, "https://shop.example.com/return", logger),
		),
		Payment:      handler.NewPaymentHandler(apppayment.NewHandleWebhookUseCase(gw, store.Orders(), store.Payments(), store, dispatcher, logger)),
		Notification: handler.NewNotificationHandler(appnotify.NewNotificationsUseCase(store.Notifications())),
	}
	auth := middleware.NewAuthMiddleware(jwtManager, sess, cfg.Admin, logger)

	return &testAPI{
		t:       t,
		engine:  New(cfg, logger, h, auth, nil),
		store:   store,
		outbox:  box,
		gateway: gateway,
	}
}

type call struct {
	token   string
	cookies []*http.Cookie
	headers map[string]string
	raw     []byte
}

func (a *testAPI) do(method, path string, body interface{}, opt call) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	payload := opt.raw
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if opt.token != "" {
		req.Header.Set("Authorization", "Bearer "+opt.token)
	}
	for k, v := range opt.headers {
		req.Header.Set(k, v)
	}
	for _, c := range opt.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) ok(method, path string, body interface{}, opt call, out interface{}) {
	a.t.Helper()
	w, env := a.do(method, path, body, opt)
	require.Equal(a.t, http.StatusOK, w.Code)
	require.Equal(a.t, 0, env.Code, env.Message)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func (a *testAPI) signUp(email, name string) string {
	a.t.Helper()
	a.ok(http.MethodPost, "/api/v1/users/register",
		map[string]string{"email": email, "password": "Scent2026", "name": name}, call{}, nil)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	a.ok(http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": email, "password": "Scent2026"}, call{}, &login)
	require.NotEmpty(a.t, login.AccessToken)
	return login.AccessToken
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	api.ok(http.MethodGet, "/ping", nil, call{}, nil)

	w, _ := api.do(http.MethodGet, "/metrics", nil, call{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "perfumestore_http_requests_total")
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.signUp(adminEmail, "Store Ops")
	customer := api.signUp("ada@example.com", "Ada Obi")

	var prod struct {
		ID string `json:"id"`
	}
	api.ok(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name": "Oud Royale", "brand": "Maison Lagos", "price_ngn": 25000, "stock": 5,
	}, call{token: admin}, &prod)

	var coup struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	api.ok(http.MethodPost, "/api/v1/admin/coupons", map[string]interface{}{
		"code": "welcome10", "type": "PERCENT", "value": 10, "active": true,
	}, call{token: admin}, &coup)
	assert.Equal(t, "WELCOME10", coup.Code)

	// 购物车
	w, env := api.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": prod.ID, "quantity": 2}, call{})
	require.Equal(t, 0, env.Code, env.Message)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cart := call{cookies: cookies}

	var summary appcart.Summary
	api.ok(http.MethodGet, "/api/v1/cart?state=Lagos", nil, cart, &summary)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, pricing.Totals{SubtotalNGN: 50000, ShippingNGN: 1000, TotalNGN: 51000}, summary.Totals)

	var validated appcoupon.ValidateCouponResponse
	api.ok(http.MethodPost, "/api/v1/coupons/validate", map[string]interface{}{"code": " welcome10 ", "subtotal_ngn": 50000}, call{}, &validated)
	assert.Equal(t, int64(5000), validated.DiscountNGN)
	assert.Equal(t, coup.ID, validated.CouponID)

	orderBody := func(total int64) map[string]interface{} {
		return map[string]interface{}{
			"address":      map[string]string{"line1": "12 Admiralty Way", "city": "Lekki", "state": "Lagos", "phone": "08030000000"},
			"items":        []map[string]interface{}{{"product_id": prod.ID, "quantity": 2, "price_ngn": 25000}},
			"subtotal_ngn": 50000,
			"discount_ngn": 5000,
			"shipping_ngn": 1000,
			"total_ngn":    total,
			"coupon_id":    validated.CouponID,
			"is_gift":      true,
			"gift_message": "Happy birthday",
		}
	}

	t.Run("金额不一致拒绝下单", func(t *testing.T) {
		_, env := api.do(http.MethodPost, "/api/v1/orders", orderBody(51000), call{token: customer, cookies: cookies})
		assert.Equal(t, apperrors.ErrCodeTotalMismatch, env.Code)
		assert.Equal(t, 0, api.store.OrderCount())
	})

	var created apporder.CreateOrderResponse
	api.ok(http.MethodPost, "/api/v1/orders", orderBody(46000), call{token: customer, cookies: cookies}, &created)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, int64(46000), created.Totals.TotalNGN)
	assert.Equal(t, 3, api.store.Product(prod.ID).Stock)
	assert.Equal(t, 1, api.store.Coupon(coup.ID).UsedCount)

	// 下单后购物车清空
	api.ok(http.MethodGet, "/api/v1/cart", nil, cart, &summary)
	assert.Zero(t, summary.Count)

	orderPath := "/api/v1/orders/" + created.OrderID
	t.Run("不能查看别人的订单", func(t *testing.T) {
		_, env := api.do(http.MethodGet, orderPath, nil, call{token: admin})
		assert.Equal(t, apperrors.ErrCodeOrderNotFound, env.Code)
	})

	var pay apppayment.InitializePaymentResponse
	api.ok(http.MethodPost, orderPath+"/pay", nil, call{token: customer}, &pay)
	assert.Equal(t, int64(4600000), pay.AmountKobo)
	assert.Equal(t, "https://checkout.paystack.com/"+pay.Reference, pay.AuthorizationURL)

	webhook := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":4600000,"status":"success","metadata":{"orderId":%q}}}`,
		pay.Reference, created.OrderID))
	signature := hex.EncodeToString(paystack.Sign(testSecret, webhook))

	t.Run("签名错误返回401", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/api/v1/payments/webhook", nil, call{
			raw:     webhook,
			headers: map[string]string{"x-paystack-signature": hex.EncodeToString(paystack.Sign("wrong", webhook))},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, env.Code)
	})

	var result apppayment.WebhookResult
	hook := call{raw: webhook, headers: map[string]string{"x-paystack-signature": signature}}
	api.ok(http.MethodPost, "/api/v1/payments/webhook", nil, hook, &result)
	assert.True(t, result.Handled)

	api.ok(http.MethodPost, "/api/v1/payments/webhook", nil, hook, &result)
	assert.True(t, result.Duplicate)
	assert.False(t, result.Handled)

	var detail apporder.OrderDTO
	api.ok(http.MethodGet, orderPath, nil, call{token: customer}, &detail)
	assert.Equal(t, "PAID", detail.Status)
	assert.Equal(t, pay.Reference, detail.PaymentReference)

	// 管理端发货
	statusPath := "/api/v1/admin/orders/" + created.OrderID + "/status"
	api.ok(http.MethodPatch, statusPath, map[string]string{"status": "shipped"}, call{token: admin}, &detail)
	assert.Equal(t, "SHIPPED", detail.Status)

	_, env = api.do(http.MethodPatch, statusPath, map[string]string{"status": "PENDING"}, call{token: admin})
	assert.Equal(t, apperrors.ErrCodeInvalidOrderStatus, env.Code)

	var notes appnotify.ListNotificationsResponse
	api.ok(http.MethodGet, "/api/v1/admin/notifications?unread_only=true", nil, call{token: admin}, &notes)
	assert.Equal(t, int64(3), notes.Total) // 下单、支付、发货
	api.ok(http.MethodPost, "/api/v1/admin/notifications/"+notes.List[0].ID+"/read", nil, call{token: admin}, nil)
	api.ok(http.MethodGet, "/api/v1/admin/notifications?unread_only=true", nil, call{token: admin}, &notes)
	assert.Equal(t, int64(2), notes.Total)

	assert.Equal(t, 3, api.outbox.count())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	customer := api.signUp("ada@example.com", "Ada Obi")

	_, env := api.do(http.MethodGet, "/api/v1/admin/orders", nil, call{})
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

	_, env = api.do(http.MethodGet, "/api/v1/admin/orders", nil, call{token: customer})
	assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("ada@example.com", "Ada Obi")

	api.ok(http.MethodGet, "/api/v1/orders", nil, call{token: token}, nil)
	api.ok(http.MethodPost, "/api/v1/users/logout", nil, call{token: token}, nil)

	_, env := api.do(http.MethodGet, "/api/v1/orders", nil, call{token: token})
	assert.Equal(t, apperrors.ErrCodeTokenExpired, env.Code)
}

func TestBindErrors(t *testing.T) {
	api := newTestAPI(t)

	_, env := api.do(http.MethodPost, "/api/v1/users/register", map[string]string{"email": "not-an-email"}, call{})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)

	_, env = api.do(http.MethodGet, "/api/v1/products?sort_by=random", nil, call{})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)

	_, env = api.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": "../etc", "quantity": 1}, call{})
	assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
}
