package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 预定义错误经常被Newf派生出带具体信息的副本（如库存不足时带上商品名），
// errors.Is(err, ErrInsufficientStock)仍需成立
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Kind 返回错误所属的大类
func (e *AppError) Kind() Kind {
	return KindOf(e.Code)
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 格式化创建AppError
func Newf(code int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Upstream 包装外部服务错误（支付网关、邮件通道）
func Upstream(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeUpstream,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 400xx: 状态冲突（库存不足、优惠券不可用、金额不一致）
// - 401xx: 认证授权
// - 404xx: 资源不存在
// - 409xx: 参数校验失败
// - 500xx: 服务端错误
// - 502xx: 上游服务错误

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	// 上游服务错误（50200-50299）
	ErrCodeUpstream       = 50200 // 上游服务错误(通用)
	ErrCodePaymentGateway = 50201 // 支付网关调用失败
	ErrCodeMailTransport  = 50202 // 邮件发送失败

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized     = 40100 // 未登录
	ErrCodeInvalidToken     = 40101 // Token无效
	ErrCodeTokenExpired     = 40102 // Token过期
	ErrCodeInvalidPassword  = 40103 // 密码错误
	ErrCodeForbidden        = 40104 // 无权限
	ErrCodeInvalidSignature = 40105 // Webhook签名不合法
	ErrCodeTooManyRequests  = 40129 // 请求过于频繁

	// 资源错误（40400-40499）
	ErrCodeNotFound        = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound    = 40401 // 用户不存在
	ErrCodeProductNotFound = 40402 // 商品不存在
	ErrCodeOrderNotFound   = 40403 // 订单不存在
	ErrCodeCouponNotFound  = 40404 // 优惠券不存在
	ErrCodePaymentNotFound = 40405 // 支付记录不存在

	// 状态冲突错误（40000-40099）
	ErrCodeBusinessError        = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock    = 40001 // 库存不足
	ErrCodeInvalidOrderStatus   = 40002 // 订单状态非法
	ErrCodeEmailDuplicate       = 40003 // 邮箱已存在
	ErrCodeSlugDuplicate        = 40004 // 商品slug已存在
	ErrCodeWeakPassword         = 40005 // 密码强度不足
	ErrCodeTotalMismatch        = 40006 // 订单金额与服务端计算不一致
	ErrCodeOrderStatusConflict  = 40007 // 订单状态已被并发修改
	ErrCodeCouponInactive       = 40010 // 优惠券未启用
	ErrCodeCouponExpired        = 40011 // 优惠券不在有效期
	ErrCodeCouponUsageLimit     = 40012 // 优惠券使用次数已满
	ErrCodeCouponBelowMinimum   = 40013 // 未达到优惠券最低消费
	ErrCodeCouponCodeDuplicate  = 40014 // 优惠券码已存在
	ErrCodePaymentAmountInvalid = 40020 // 支付金额与订单不符
	ErrCodeDuplicateEntry       = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// Kind 错误大类
type Kind int

const (
	KindInternal      Kind = iota // 内部错误
	KindValidation                // 参数校验失败,不触达持久层
	KindNotFound                  // 引用的资源不存在
	KindStateConflict             // 库存/优惠券/金额/状态冲突
	KindUnauthorized              // 认证授权失败
	KindUpstream                  // 支付网关、邮件通道等外部失败
)

// String 实现Stringer接口(方便日志输出)
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStateConflict:
		return "state_conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// KindOf 根据错误码区间判断大类
func KindOf(code int) Kind {
	switch {
	case code >= 40900 && code < 41000:
		return KindValidation
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code >= 40100 && code < 40200:
		return KindUnauthorized
	case code >= 40000 && code < 40100:
		return KindStateConflict
	case code >= 50200 && code < 50300:
		return KindUpstream
	default:
		return KindInternal
	}
}

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "internal server error")
	ErrDatabaseError = New(ErrCodeDatabaseError, "database error")
	ErrRedisError    = New(ErrCodeRedisError, "cache service error")

	// 认证授权
	ErrUnauthorized     = New(ErrCodeUnauthorized, "please sign in")
	ErrInvalidToken     = New(ErrCodeInvalidToken, "invalid token")
	ErrTokenExpired     = New(ErrCodeTokenExpired, "token expired")
	ErrInvalidPassword  = New(ErrCodeInvalidPassword, "incorrect email or password")
	ErrForbidden        = New(ErrCodeForbidden, "you do not have access to this resource")
	ErrInvalidSignature = New(ErrCodeInvalidSignature, "invalid signature")
	ErrTooManyRequests  = New(ErrCodeTooManyRequests, "too many requests, please slow down")

	// 资源不存在
	ErrUserNotFound = New(ErrCodeUserNotFound, "user not found")

	// 业务规则
	ErrEmailDuplicate = New(ErrCodeEmailDuplicate, "email is already registered")
	ErrWeakPassword   = New(ErrCodeWeakPassword, "password must be 8-20 characters and contain letters and digits")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "invalid parameters")
	ErrBindError     = New(ErrCodeBindError, "malformed request body")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "internal server error")
}

// IsKind 判断错误是否属于某个大类
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind() == kind
}
