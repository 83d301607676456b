package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/health"
	"traguardo/backend/internal/logger"
	"traguardo/backend/internal/mailer"
	"traguardo/backend/internal/monitoring"
	"traguardo/backend/internal/service"
	httptransport "traguardo/backend/internal/transport/http"
)

// main 启动联系表单网关。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Service:     logger.DefaultService,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting traguardo contact gateway",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.String("provider", cfg.Contact.Provider),
		zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins),
	)

	// 配置不完整时仍然启动：每个提交返回 500，就绪检查失败
	if missing := cfg.MissingSettings(); len(missing) > 0 {
		log.Error("contact delivery not configured, submissions will be refused",
			zap.Strings("missing", missing),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender, err := mailer.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize mail provider", zap.Error(err))
	}

	metrics := monitoring.NewMetrics()

	var checks []health.Check
	if host := providerHost(cfg); host != "" {
		checks = append(checks, health.DNSCheck(host))
	}
	healthChecker := health.NewHealthChecker(cfg, log, checks...)

	contactService := service.NewContactService(cfg, sender, metrics, log)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		ContactService: contactService,
		Metrics:        metrics,
		Health:         healthChecker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// 写超时要覆盖上游发送超时
		WriteTimeout: cfg.Contact.SendTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Contact.SendTimeout+5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// providerHost 返回上游服务的主机名，用于就绪检查中的 DNS 解析
func providerHost(cfg *config.Config) string {
	switch cfg.Contact.Provider {
	case config.ProviderResend:
		u, err := url.Parse(cfg.Resend.Endpoint)
		if err != nil {
			return ""
		}
		return u.Hostname()
	case config.ProviderSMTP:
		return cfg.SMTP.Host
	case config.ProviderSES:
		if cfg.SES.Region == "" {
			return ""
		}
		return fmt.Sprintf("email.%s.amazonaws.com", cfg.SES.Region)
	}
	return ""
}
