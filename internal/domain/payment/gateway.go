package payment

import "context"

//go:generate mockgen -destination=mock/gateway_mock.go -package=mock github.com/xiebiao/perfumestore/internal/domain/payment Gateway

// InitializeRequest 发起支付
type InitializeRequest struct {
	Email       string
	AmountKobo  int64
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

// InitializeResult 网关返回的跳转地址
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Gateway 支付网关
type Gateway interface {
	// Initialize 创建交易，失败返回UpstreamError
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)

	// ParseWebhook 校验签名并解析回调
	// 签名不合法返回apperrors.ErrInvalidSignature
	ParseWebhook(body []byte, signature string) (*Event, error)
}
