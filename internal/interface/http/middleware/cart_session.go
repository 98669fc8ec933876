package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
)

const ctxCartSessionID = "cart_sid"

// CartSession 购物车会话Cookie
// Cookie值是随机uuid，不合法或不存在时重新生成；每次访问刷新过期时间
func CartSession(cfg config.CartConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = "cart_sid"
	}
	maxAge := int(cfg.TTL.Seconds())

	return func(c *gin.Context) {
		sid, err := c.Cookie(name)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, sid, maxAge, "/", "", cfg.Secure, true)
		c.Set(ctxCartSessionID, sid)
		c.Next()
	}
}

// GetCartSessionID 当前购物车会话ID
func GetCartSessionID(c *gin.Context) string {
	return c.GetString(ctxCartSessionID)
}
