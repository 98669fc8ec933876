// Package paystack Paystack支付网关适配
//
// 发起交易走HTTP API（熔断保护），回调用HMAC-SHA512校验签名。
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/tracing"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	breakerName    = "paystack"
	maxBodyBytes   = 1 << 20
)

// Client Paystack网关
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

var _ payment.Gateway = (*Client)(nil)

// New 创建Paystack客户端
func New(cfg config.PaymentConfig, logger *zap.Logger) *Client {
	logger = logger.Named("paystack")

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	failures := cfg.Breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	breaker := circuitbreaker.New(breakerName, circuitbreaker.Settings{
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// 4xx是请求本身的问题，不代表网关不可用
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.code < 500)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(circuitbreaker.StateClosed))

	return &Client{
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// statusError 网关返回的非2xx或status=false
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("paystack returned %d: %s", e.code, e.message)
}

type initializeBody struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Initialize POST /transaction/initialize
func (c *Client) Initialize(ctx context.Context, req payment.InitializeRequest) (result *payment.InitializeResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "paystack.initialize",
		attribute.String("payment.reference", req.Reference),
		attribute.Int64("payment.amount_kobo", req.AmountKobo))
	defer func() { tracing.End(span, err) }()

	body, err := json.Marshal(initializeBody{
		Email:       req.Email,
		Amount:      req.AmountKobo,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "序列化支付请求失败")
	}

	var resp initializeResponse
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.post(ctx, "/transaction/initialize", body, &resp)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			c.logger.Warn("熔断器打开，拒绝发起支付", zap.String("reference", req.Reference))
			return nil, payment.ErrGatewayUnavailable
		}
		c.logger.Error("发起支付失败", zap.String("reference", req.Reference), zap.Error(err))
		return nil, apperrors.Upstream(err, "payment provider request failed")
	}

	return &payment.InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out *initializeResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if httpResp.StatusCode >= 300 {
			return &statusError{code: httpResp.StatusCode, message: http.StatusText(httpResp.StatusCode)}
		}
		return fmt.Errorf("decode paystack response: %w", err)
	}
	if httpResp.StatusCode >= 300 || !out.Status {
		return &statusError{code: httpResp.StatusCode, message: out.Message}
	}
	if out.Data.AuthorizationURL == "" {
		return errors.New("paystack response missing authorization_url")
	}
	return nil
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Amount    int64           `json:"amount"`
		Status    string          `json:"status"`
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// ParseWebhook 校验x-paystack-signature并解析事件
// 签名 = hex(HMAC-SHA512(secretKey, rawBody))
func (c *Client) ParseWebhook(body []byte, signature string) (*payment.Event, error) {
	if !VerifySignature(c.secretKey, body, signature) {
		return nil, apperrors.ErrInvalidSignature
	}

	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil || p.Event == "" {
		return nil, payment.ErrMalformedEvent
	}

	return &payment.Event{
		Name:       p.Event,
		Reference:  p.Data.Reference,
		AmountKobo: p.Data.Amount,
		OrderID:    metadataOrderID(p.Data.Metadata),
		Status:     p.Data.Status,
	}, nil
}

// VerifySignature 常量时间比较签名
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(secret, body))
}

// Sign 计算签名（测试和本地联调用）
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// metadataOrderID metadata可能是对象，也可能是JSON字符串或空串
func metadataOrderID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil || json.Unmarshal([]byte(s), &m) != nil {
			return ""
		}
	}
	if id, ok := m["orderId"].(string); ok {
		return id
	}
	return ""
}
