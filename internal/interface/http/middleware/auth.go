package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/jwt"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// Context中的键
const (
	ctxUserID      = "user_id"
	ctxEmail       = "email"
	ctxName        = "name"
	ctxAccessToken = "access_token"
)

// TokenBlacklist 已登出Token的查询（生产实现是redis.SessionStore）
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
//  1. 从Authorization头提取Bearer Token
//  2. 检查黑名单（已登出的Token）
//  3. 校验签名和过期时间，把用户信息写入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
	admins     config.AdminConfig
	logger     *zap.Logger
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist, admins config.AdminConfig, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		admins:     admins,
		logger:     logger.Named("auth"),
	}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 要求登录且邮箱在管理员白名单内
// 白名单在配置里维护，不落库
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			c.Abort()
			return
		}
		if !m.admins.IsAdmin(GetEmail(c)) {
			m.logger.Warn("非管理员访问管理接口",
				zap.String("user_id", GetUserID(c)),
				zap.String("path", c.FullPath()))
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate 校验Token并写入Context，失败时已写好响应
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return false
	}

	// Authorization: Bearer <token>
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		response.Error(c, apperrors.ErrInvalidToken)
		return false
	}
	tokenString := strings.TrimSpace(parts[1])

	revoked, err := m.blacklist.IsInBlacklist(c.Request.Context(), tokenString)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "验证Token失败"))
		return false
	}
	if revoked {
		response.Error(c, apperrors.ErrTokenExpired)
		return false
	}

	claims, err := m.jwtManager.ParseToken(tokenString)
	if err != nil {
		response.Error(c, err)
		return false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxName, claims.Name)
	c.Set(ctxAccessToken, tokenString)
	return true
}

// GetUserID 当前登录用户ID，未登录返回空串
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetEmail 当前登录用户邮箱
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetName 当前登录用户姓名
func GetName(c *gin.Context) string {
	return c.GetString(ctxName)
}

// GetAccessToken 本次请求携带的Access Token（登出时拉黑用）
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}

// MustGetUserID 用于RequireAuth之后的Handler，取不到说明路由配置错误
func MustGetUserID(c *gin.Context) string {
	userID := GetUserID(c)
	if userID == "" {
		panic("user_id not found in context")
	}
	return userID
}
