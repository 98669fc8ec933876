package main

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	appuser "github.com/xiebiao/perfumestore/internal/application/user"
	"github.com/xiebiao/perfumestore/internal/domain/cart"
	"github.com/xiebiao/perfumestore/internal/domain/order"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/domain/pricing"
	"github.com/xiebiao/perfumestore/internal/domain/user"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/payment/paystack"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/pkg/jwt"
)

// 以下Provider从Config中取参数，main.go和wire.go共用

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideCartStore(client *goredis.Client, cfg *config.Config) cart.Store {
	return redis.NewCartStore(client, cfg.Cart.TTL)
}

// provideLimiter 未启用时返回nil接口，路由不限流
func provideLimiter(client *goredis.Client, cfg *config.Config, logger *zap.Logger) middleware.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return redis.NewRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
}

func providePaystack(cfg *config.Config, logger *zap.Logger) *paystack.Client {
	return paystack.New(cfg.Payment, logger)
}

func provideUserService(repo user.Repository) user.Service {
	return user.NewService(repo, bcrypt.DefaultCost)
}

func provideShippingPolicy(cfg *config.Config) pricing.ShippingPolicy {
	return pricing.NewShippingPolicy(cfg.Shipping.FlatFee, cfg.Shipping.FreeOver, cfg.Shipping.StateFees)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(svc user.Service, jwtManager *jwt.Manager, store appuser.SessionStore, cfg *config.Config, logger *zap.Logger) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(svc, jwtManager, store, cfg.JWT.RefreshTokenExpire, logger)
}

func provideLogoutUseCase(store appuser.SessionStore, cfg *config.Config) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(store, cfg.JWT.AccessTokenExpire)
}

func provideInitializePaymentUseCase(
	orders order.Repository,
	payments payment.Repository,
	gateway payment.Gateway,
	cfg *config.Config,
	logger *zap.Logger,
) *apppayment.InitializePaymentUseCase {
	return apppayment.NewInitializePaymentUseCase(orders, payments, gateway, cfg.Payment.CallbackURL, logger)
}

func provideAuthMiddleware(jwtManager *jwt.Manager, blacklist middleware.TokenBlacklist, cfg *config.Config, logger *zap.Logger) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, blacklist, cfg.Admin, logger)
}
