//go:build wireinject
// +build wireinject

// Wire依赖注入声明，`wire gen ./cmd/api` 生成wire_gen.go
// main.go目前手动组装，两边的依赖链保持一致

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	appcart "github.com/xiebiao/perfumestore/internal/application/cart"
	appcoupon "github.com/xiebiao/perfumestore/internal/application/coupon"
	appnotify "github.com/xiebiao/perfumestore/internal/application/notify"
	apporder "github.com/xiebiao/perfumestore/internal/application/order"
	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	appproduct "github.com/xiebiao/perfumestore/internal/application/product"
	appuser "github.com/xiebiao/perfumestore/internal/application/user"
	domainmail "github.com/xiebiao/perfumestore/internal/domain/mail"
	"github.com/xiebiao/perfumestore/internal/domain/payment"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/payment/paystack"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/perfumestore/internal/interface/http/handler"
	"github.com/xiebiao/perfumestore/internal/interface/http/middleware"
	"github.com/xiebiao/perfumestore/internal/interface/http/router"
)

var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	redis.NewClient,
	mysql.NewTxManager,
	wire.Bind(new(apporder.Transactor), new(*mysql.TxManager)),
	wire.Bind(new(apppayment.Transactor), new(*mysql.TxManager)),
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	provideCartStore,
	provideLimiter,
	providePaystack,
	wire.Bind(new(payment.Gateway), new(*paystack.Client)),
	provideJWTManager,
)

var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewCouponRepository,
	mysql.NewOrderRepository,
	mysql.NewPaymentRepository,
	mysql.NewNotificationRepository,
)

var domainSet = wire.NewSet(
	provideUserService,
	product.NewService,
	provideShippingPolicy,
)

var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	provideLogoutUseCase,
	appuser.NewRefreshTokenUseCase,
	appproduct.NewListProductsUseCase,
	appproduct.NewGetProductUseCase,
	appproduct.NewManageProductsUseCase,
	appcart.NewService,
	appcoupon.NewValidateCouponUseCase,
	appcoupon.NewManageCouponsUseCase,
	apporder.NewCreateOrderUseCase,
	apporder.NewUpdateOrderStatusUseCase,
	apporder.NewQueryUseCase,
	provideInitializePaymentUseCase,
	apppayment.NewHandleWebhookUseCase,
	appnotify.NewDispatcher,
	wire.Bind(new(apporder.Notifier), new(*appnotify.Dispatcher)),
	wire.Bind(new(apppayment.Notifier), new(*appnotify.Dispatcher)),
	appnotify.NewNotificationsUseCase,
)

var interfaceSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewProductHandler,
	handler.NewCartHandler,
	handler.NewCouponHandler,
	handler.NewOrderHandler,
	handler.NewPaymentHandler,
	handler.NewNotificationHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideAuthMiddleware,
	router.New,
)

// InitializeApp 构造Gin引擎
// 邮件发送器按运行环境选择（队列或SMTP），由调用方传入
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, sender domainmail.Sender) (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil
}
