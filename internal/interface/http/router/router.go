// Package router 路由注册
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/interface/http/handler"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// 限流scope
const (
	ScopeLogin   = "login"
	ScopeCoupon  = "coupon"
	ScopeOrder   = "order"
	ScopePayment = "payment"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User         *handler.UserHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Coupon       *handler.CouponHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Notification *handler.NotificationHandler
}

// New 创建Gin引擎并注册路由
// limiter为nil时不限流
func New(cfg *config.Config, logger *zap.Logger, h Handlers, auth *middleware.AuthMiddleware, limiter middleware.Limiter) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	// 执行顺序：Recovery → Logger → Metrics → Tracing → 路由中间件 → Handler
	r.Use(
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.Tracing(),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cartSession := middleware.CartSession(cfg.Cart)
	requireAuth := auth.RequireAuth()

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.User.Register)
			users.POST("/login", middleware.RateLimit(limiter, ScopeLogin), h.User.Login)
			users.POST("/refresh", h.User.Refresh)
			users.POST("/logout", requireAuth, h.User.Logout)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.Product.ListProducts)
			products.GET("/:id", h.Product.GetProduct)
		}

		cart := v1.Group("/cart", cartSession)
		{
			cart.GET("", h.Cart.GetCart)
			cart.DELETE("", h.Cart.Clear)
			cart.POST("/items", h.Cart.AddItem)
			cart.PUT("/items/:productId", h.Cart.UpdateItem)
			cart.DELETE("/items/:productId", h.Cart.RemoveItem)
		}

		v1.POST("/coupons/validate", middleware.RateLimit(limiter, ScopeCoupon), h.Coupon.Validate)

		orders := v1.Group("/orders", requireAuth)
		{
			orders.POST("", middleware.RateLimit(limiter, ScopeOrder), cartSession, h.Order.CreateOrder)
			orders.GET("", h.Order.ListMyOrders)
			orders.GET("/:id", h.Order.GetMyOrder)
			orders.POST("/:id/pay", middleware.RateLimit(limiter, ScopePayment), h.Order.PayOrder)
		}

		// 网关回调不走登录认证，靠签名校验
		v1.POST("/payments/webhook", h.Payment.Webhook)

		admin := v1.Group("/admin", auth.RequireAdmin())
		{
			admin.POST("/products", h.Product.CreateProduct)
			admin.PUT("/products/:id", h.Product.UpdateProduct)
			admin.DELETE("/products/:id", h.Product.DeleteProduct)

			admin.GET("/coupons", h.Coupon.ListCoupons)
			admin.POST("/coupons", h.Coupon.CreateCoupon)
			admin.PUT("/coupons/:id", h.Coupon.UpdateCoupon)

			admin.GET("/orders", h.Order.ListOrders)
			admin.PATCH("/orders/:id/status", h.Order.UpdateStatus)

			admin.GET("/notifications", h.Notification.List)
			admin.POST("/notifications/:id/read", h.Notification.MarkRead)
		}
	}

	return r
}
