package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/xiebiao/perfumestore/docs"
	appcart "github.com/xiebiao/perfumestore/internal/application/cart"
	appcoupon "github.com/xiebiao/perfumestore/internal/application/coupon"
	appnotify "github.com/xiebiao/perfumestore/internal/application/notify"
	apporder "github.com/xiebiao/perfumestore/internal/application/order"
	apppayment "github.com/xiebiao/perfumestore/internal/application/payment"
	appproduct "github.com/xiebiao/perfumestore/internal/application/product"
	appuser "github.com/xiebiao/perfumestore/internal/application/user"
	domainmail "github.com/xiebiao/perfumestore/internal/domain/mail"
	"github.com/xiebiao/perfumestore/internal/domain/product"
	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/mail"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/perfumestore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/perfumestore/internal/interface/http/handler"
	"github.com/xiebiao/perfumestore/internal/interface/http/router"
	"github.com/xiebiao/perfumestore/pkg/logger"
	"github.com/xiebiao/perfumestore/pkg/mq"
	"github.com/xiebiao/perfumestore/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

// @title           Perfume Store API
// @version         1.0
// @description     香水电商后端：商品目录、购物车、优惠券、下单、Paystack支付、后台管理
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("服务异常退出", zap.Error(err))
		os.Exit(1)
	}
	zl.Info("服务已关闭")
}

// run 组装依赖并启动HTTP服务，ctx取消后优雅关闭
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Environment: cfg.Server.Mode,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			zl.Warn("关闭tracing失败", zap.Error(err))
		}
	}()

	db, err := mysql.NewDB(cfg, zl)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisClient, err := redis.NewClient(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sender, closeSender, err := newMailSender(cfg, zl)
	if err != nil {
		return err
	}
	defer closeSender()

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	couponRepo := mysql.NewCouponRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	notificationRepo := mysql.NewNotificationRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	cartStore := provideCartStore(redisClient, cfg)
	gateway := providePaystack(cfg, zl)
	jwtManager := provideJWTManager(cfg)
	limiter := provideLimiter(redisClient, cfg, zl)

	// 领域层
	userService := provideUserService(userRepo)
	productService := product.NewService(productRepo)
	shipping := provideShippingPolicy(cfg)

	// 应用层
	dispatcher := appnotify.NewDispatcher(sender, notificationRepo, zl)

	h := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			provideLoginUseCase(userService, jwtManager, sessionStore, cfg, zl),
			provideLogoutUseCase(sessionStore, cfg),
			appuser.NewRefreshTokenUseCase(jwtManager),
		),
		Product: handler.NewProductHandler(
			appproduct.NewListProductsUseCase(productService),
			appproduct.NewGetProductUseCase(productService),
			appproduct.NewManageProductsUseCase(productService, zl),
		),
		Cart: handler.NewCartHandler(appcart.NewService(cartStore, productRepo, shipping, zl)),
		Coupon: handler.NewCouponHandler(
			appcoupon.NewValidateCouponUseCase(couponRepo),
			appcoupon.NewManageCouponsUseCase(couponRepo),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(orderRepo, productRepo, couponRepo, cartStore, txManager, shipping, dispatcher, zl),
			apporder.NewUpdateOrderStatusUseCase(orderRepo, productRepo, txManager, dispatcher, zl),
			apporder.NewQueryUseCase(orderRepo),
			provideInitializePaymentUseCase(orderRepo, paymentRepo, gateway, cfg, zl),
		),
		Payment:      handler.NewPaymentHandler(apppayment.NewHandleWebhookUseCase(gateway, orderRepo, paymentRepo, txManager, dispatcher, zl)),
		Notification: handler.NewNotificationHandler(appnotify.NewNotificationsUseCase(notificationRepo)),
	}
	auth := provideAuthMiddleware(jwtManager, sessionStore, cfg, zl)

	engine := router.New(cfg, zl, h, auth, limiter)
	return serve(ctx, cfg.Server, engine, zl)
}

// newMailSender API进程优先把邮件写入队列；RabbitMQ不可用时退回直接SMTP发送
func newMailSender(cfg *config.Config, zl *zap.Logger) (domainmail.Sender, func(), error) {
	publisher, err := mq.NewPublisher(mq.Config{URL: cfg.MQ.URL, Exchange: cfg.MQ.Exchange}, zl.Named("mq"))
	if err == nil {
		return mail.NewQueueSender(publisher, cfg.MQ.RoutingKey, zl), func() { _ = publisher.Close() }, nil
	}
	zl.Warn("RabbitMQ不可用，邮件改为同步SMTP发送", zap.Error(err))

	smtpSender, err := mail.NewSMTPSender(cfg.Mail, zl)
	if err != nil {
		return nil, nil, err
	}
	return smtpSender, func() {}, nil
}

func serve(ctx context.Context, cfg config.ServerConfig, engine *gin.Engine, zl *zap.Logger) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("HTTP服务启动", zap.String("addr", srv.Addr), zap.String("mode", cfg.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("正在优雅关闭HTTP服务")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
