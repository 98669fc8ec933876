// Package metrics Prometheus指标
//
// 所有指标在包初始化时通过promauto注册到默认Registry，
// /metrics端点由Handler()暴露。
//
// 命名约定：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只用有限取值（status、reason、event），不要用order_id、user_id
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perfumestore"

// HTTP
var (
	// HTTPRequestsTotal HTTP请求总数，path使用路由模板（/api/v1/orders/:id）
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求耗时（秒）",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "path"})

	HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "正在处理的HTTP请求数",
	})

	// RateLimitRejectedTotal 被限流拒绝的请求
	RateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_rejected_total",
		Help:      "被限流拒绝的请求数",
	}, []string{"scope"})
)

// 下单
var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "订单创建成功总数",
	})

	// OrdersFailedTotal reason取错误大类（validation/not_found/state_conflict/internal）
	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "订单创建失败总数",
	}, []string{"reason"})

	OrderCreationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_creation_duration_seconds",
		Help:      "订单创建耗时（秒）",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "订单状态流转次数",
	}, []string{"from", "to"})
)

// 优惠券
var (
	CouponRedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_redemptions_total",
		Help:      "优惠券核销次数",
	})

	// CouponRejectionsTotal reason: not_found/inactive/expired/usage_limit/below_minimum
	CouponRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_rejections_total",
		Help:      "优惠券校验被拒次数",
	}, []string{"reason"})
)

// 支付
var (
	PaymentGatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_gateway_requests_total",
		Help:      "支付网关调用次数",
	}, []string{"operation", "result"})

	// PaymentWebhookEventsTotal result: processed/duplicate/ignored/rejected/failed
	PaymentWebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_webhook_events_total",
		Help:      "支付回调事件数",
	}, []string{"event", "result"})

	// CircuitBreakerState 0=CLOSED 1=OPEN 2=HALF_OPEN
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
	}, []string{"name"})
)

// 消息队列与邮件
var (
	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_published_total",
		Help:      "消息发布总数",
	}, []string{"exchange", "routing_key", "result"})

	MessagesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_consumed_total",
		Help:      "消息消费总数",
	}, []string{"queue", "result"})

	MessageProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_processing_duration_seconds",
		Help:      "消息处理耗时（秒）",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30},
	})

	MailSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "邮件发送次数",
	}, []string{"template", "result"})
)

// Handler /metrics端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result 把error转成result标签
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
