// worker 后台任务进程
//
//	worker mail  消费邮件队列并通过SMTP发送
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

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/perfumestore/internal/infrastructure/config"
	"github.com/xiebiao/perfumestore/internal/infrastructure/mail"
	"github.com/xiebiao/perfumestore/pkg/logger"
	"github.com/xiebiao/perfumestore/pkg/metrics"
	"github.com/xiebiao/perfumestore/pkg/mq"
)

func main() {
	app := &cli.App{
		Name:  "worker",
		Usage: "perfumestore 后台任务",
		Commands: []*cli.Command{
			{
				Name:  "mail",
				Usage: "消费邮件队列",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "metrics-addr",
						Value:   ":9102",
						Usage:   "Prometheus指标监听地址，空字符串表示不暴露",
						EnvVars: []string{"PERFUMESTORE_WORKER_METRICS_ADDR"},
					},
				},
				Action: runMail,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	zl, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(zl)
	return cfg, zl, nil
}

func runMail(c *cli.Context) error {
	cfg, zl, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender, err := mail.NewSMTPSender(cfg.Mail, zl)
	if err != nil {
		return err
	}

	bindings := cfg.MQ.Bindings
	if len(bindings) == 0 {
		bindings = []string{cfg.MQ.RoutingKey}
	}
	consumer, err := mq.NewConsumer(
		mq.Config{URL: cfg.MQ.URL, Exchange: cfg.MQ.Exchange},
		cfg.MQ.Queue, bindings, cfg.MQ.Prefetch, zl.Named("mq"),
	)
	if err != nil {
		return err
	}
	defer consumer.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Consume(gctx, mail.NewHandler(sender, zl))
	})

	if addr := c.String("metrics-addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			zl.Info("worker指标服务启动", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("指标服务异常: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	zl.Info("邮件worker启动", zap.String("queue", cfg.MQ.Queue), zap.Strings("bindings", bindings))
	return g.Wait()
}
