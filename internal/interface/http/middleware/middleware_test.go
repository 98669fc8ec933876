package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/jwt"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type body struct {
	Code int               `json:"code"`
	Data map[string]string `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	return f.revoked[token], f.err
}

func newAuthRouter(t *testing.T, bl *fakeBlacklist) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	m := NewAuthMiddleware(manager, bl, config.AdminConfig{Emails: []string{"Admin@PerfumeStore.ng"}}, zap.NewNop())

	r := gin.New()
	whoami := func(c *gin.Context) {
		response.Success(c, gin.H{"user_id": MustGetUserID(c), "email": GetEmail(c), "token": GetAccessToken(c)})
	}
	r.GET("/me", m.RequireAuth(), whoami)
	r.GET("/admin", m.RequireAdmin(), whoami)
	return r, manager
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	bl := &fakeBlacklist{revoked: map[string]bool{}}
	r, manager := newAuthRouter(t, bl)

	customer, err := manager.GenerateToken("u-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	admin, err := manager.GenerateToken("u-2", "admin@perfumestore.ng", "Ops")
	require.NoError(t, err)

	t.Run("未携带Token", func(t *testing.T) {
		assert.Equal(t, apperrors.ErrCodeUnauthorized, decode(t, get(r, "/me", "")).Code)
	})

	t.Run("格式错误", func(t *testing.T) {
		assert.Equal(t, apperrors.ErrCodeInvalidToken, decode(t, get(r, "/me", "Token abc")).Code)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, decode(t, get(r, "/me", "Bearer ")).Code)
	})

	t.Run("合法Token", func(t *testing.T) {
		b := decode(t, get(r, "/me", "Bearer "+customer.AccessToken))
		assert.Equal(t, 0, b.Code)
		assert.Equal(t, "u-1", b.Data["user_id"])
		assert.Equal(t, customer.AccessToken, b.Data["token"])
	})

	t.Run("Refresh Token不能访问接口", func(t *testing.T) {
		assert.NotEqual(t, 0, decode(t, get(r, "/me", "Bearer "+customer.RefreshToken)).Code)
	})

	t.Run("已登出", func(t *testing.T) {
		bl.revoked[customer.AccessToken] = true
		defer delete(bl.revoked, customer.AccessToken)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, decode(t, get(r, "/me", "Bearer "+customer.AccessToken)).Code)
	})

	t.Run("黑名单查询失败", func(t *testing.T) {
		bl.err = errors.New("redis down")
		defer func() { bl.err = nil }()
		assert.Equal(t, apperrors.ErrCodeInternal, decode(t, get(r, "/me", "Bearer "+customer.AccessToken)).Code)
	})

	t.Run("非管理员", func(t *testing.T) {
		assert.Equal(t, apperrors.ErrCodeForbidden, decode(t, get(r, "/admin", "Bearer "+customer.AccessToken)).Code)
	})

	t.Run("管理员邮箱大小写不敏感", func(t *testing.T) {
		b := decode(t, get(r, "/admin", "Bearer "+admin.AccessToken))
		assert.Equal(t, 0, b.Code)
		assert.Equal(t, "u-2", b.Data["user_id"])
	})
}

type fakeLimiter struct {
	decision redis.Decision
	scope    string
	client   string
}

func (f *fakeLimiter) Allow(ctx context.Context, scope, clientID string) redis.Decision {
	f.scope, f.client = scope, clientID
	return f.decision
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	r := gin.New()
	r.POST("/login", RateLimit(limiter, "login"), func(c *gin.Context) { response.Success(c, nil) })

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("放行", func(t *testing.T) {
		limiter.decision = redis.Decision{Allowed: true, Remaining: 4}
		w := post()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "login", limiter.scope)
		assert.Equal(t, "10.0.0.7", limiter.client)
	})

	t.Run("超限返回429", func(t *testing.T) {
		rejected := metrics.RateLimitRejectedTotal.WithLabelValues("login")
		var before dto.Metric
		require.NoError(t, rejected.Write(&before))

		limiter.decision = redis.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}
		w := post()
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
		assert.Equal(t, apperrors.ErrCodeTooManyRequests, decode(t, w).Code)

		var after dto.Metric
		require.NoError(t, rejected.Write(&after))
		assert.Equal(t, before.GetCounter().GetValue()+1, after.GetCounter().GetValue())
	})

	t.Run("未配置限流器", func(t *testing.T) {
		r := gin.New()
		r.GET("/x", RateLimit(nil, "login"), func(c *gin.Context) { response.Success(c, nil) })
		assert.Equal(t, http.StatusOK, get(r, "/x", "").Code)
	})
}

func TestCartSession(t *testing.T) {
	cfg := config.CartConfig{CookieName: "cart_sid", TTL: 24 * time.Hour, Secure: true}
	r := gin.New()
	r.GET("/cart", CartSession(cfg), func(c *gin.Context) {
		response.Success(c, gin.H{"sid": GetCartSessionID(c)})
	})

	request := func(cookie string) (*httptest.ResponseRecorder, string) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "cart_sid", Value: cookie})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w, decode(t, w).Data["sid"]
	}

	t.Run("首次访问生成会话", func(t *testing.T) {
		w, sid := request("")
		require.NoError(t, uuid.Validate(sid))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sid, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, 86400, cookies[0].MaxAge)
	})

	t.Run("沿用已有会话", func(t *testing.T) {
		existing := uuid.NewString()
		_, sid := request(existing)
		assert.Equal(t, existing, sid)
	})

	t.Run("非法Cookie重新生成", func(t *testing.T) {
		_, sid := request("../../etc/passwd")
		assert.NotEqual(t, "../../etc/passwd", sid)
		assert.NoError(t, uuid.Validate(sid))
	})
}

func TestLogger_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { response.Success(c, gin.H{"request_id": GetRequestID(c)}) })

	t.Run("沿用上游请求ID", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, id, w.Header().Get("X-Request-ID"))
		assert.Equal(t, id, decode(t, w).Data["request_id"])
	})

	t.Run("非法请求ID重新生成", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NoError(t, uuid.Validate(w.Header().Get("X-Request-ID")))
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("nil map") })

	w := get(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, decode(t, w).Code)
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/products/:id", func(c *gin.Context) { response.Success(c, nil) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/products/:id", "200")
	var before dto.Metric
	require.NoError(t, counter.Write(&before))

	get(r, "/products/abc", "")
	get(r, "/products/def", "")

	var after dto.Metric
	require.NoError(t, counter.Write(&after))
	assert.Equal(t, before.GetCounter().GetValue()+2, after.GetCounter().GetValue())
}
