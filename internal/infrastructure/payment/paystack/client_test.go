package paystack

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
)

const testSecret = "sk_test_perfume"

func newTestClient(t *testing.T, handler http.HandlerFunc, failures uint32) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.PaymentConfig{
		BaseURL:   srv.URL,
		SecretKey: testSecret,
		Timeout:   2 * time.Second,
		Breaker: config.CircuitBreakerConfig{
			MaxRequests:         1,
			Timeout:             time.Minute,
			ConsecutiveFailures: failures,
		},
	}, zap.NewNop())
}

func initRequest() payment.InitializeRequest {
	return payment.InitializeRequest{
		Email:       "ada@example.com",
		AmountKobo:  4650000,
		Reference:   "PAY-1",
		CallbackURL: "https://shop.example.com/checkout/return",
		Metadata:    map[string]string{"orderId": "o-1"},
	}
}

func TestClient_Initialize(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		var got initializeBody
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer "+testSecret, r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"PAY-1"}}`))
		}, 3)

		res, err := c.Initialize(context.Background(), initRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
		assert.Equal(t, "PAY-1", res.Reference)
		assert.Equal(t, int64(4650000), got.Amount)
		assert.Equal(t, "o-1", got.Metadata["orderId"])
	})

	t.Run("网关拒绝返回Upstream错误", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":false,"message":"Invalid email"}`))
		}, 3)

		_, err := c.Initialize(context.Background(), initRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
	})

	t.Run("5xx连续失败触发熔断", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}, 2)

		for i := 0; i < 2; i++ {
			_, err := c.Initialize(context.Background(), initRequest())
			require.Error(t, err)
		}
		_, err := c.Initialize(context.Background(), initRequest())
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("4xx不计入熔断", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		}, 1)

		for i := 0; i < 3; i++ {
			_, err := c.Initialize(context.Background(), initRequest())
			assert.NotErrorIs(t, err, payment.ErrGatewayUnavailable)
		}
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})
}

func sign(body string) string {
	return hex.EncodeToString(Sign(testSecret, []byte(body)))
}

func TestClient_ParseWebhook(t *testing.T) {
	c := New(config.PaymentConfig{SecretKey: testSecret}, zap.NewNop())

	t.Run("合法事件", func(t *testing.T) {
		body := `{"event":"charge.success","data":{"reference":"PAY-1","amount":4650000,"status":"success","metadata":{"orderId":"o-1"}}}`
		ev, err := c.ParseWebhook([]byte(body), sign(body))
		require.NoError(t, err)
		assert.Equal(t, &payment.Event{
			Name:       payment.EventChargeSuccess,
			Reference:  "PAY-1",
			AmountKobo: 4650000,
			OrderID:    "o-1",
			Status:     "success",
		}, ev)
	})

	t.Run("签名错误", func(t *testing.T) {
		body := `{"event":"charge.success","data":{"reference":"PAY-1","amount":1}}`
		_, err := c.ParseWebhook([]byte(body), sign(body+" "))
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)

		_, err = c.ParseWebhook([]byte(body), "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)

		_, err = c.ParseWebhook([]byte(body), "not-hex")
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("签名正确但内容非法", func(t *testing.T) {
		body := `{"data":`
		_, err := c.ParseWebhook([]byte(body), sign(body))
		assert.ErrorIs(t, err, payment.ErrMalformedEvent)
	})
}

func TestMetadataOrderID(t *testing.T) {
	assert.Equal(t, "o-1", metadataOrderID(json.RawMessage(`{"orderId":"o-1"}`)))
	assert.Equal(t, "o-2", metadataOrderID(json.RawMessage(`"{\"orderId\":\"o-2\"}"`)))
	assert.Empty(t, metadataOrderID(json.RawMessage(`""`)))
	assert.Empty(t, metadataOrderID(nil))
	assert.Empty(t, metadataOrderID(json.RawMessage(`{"orderId":42}`)))
}
