package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/erp/catalog-console/internal/application/catalog"
	"github.com/erp/catalog-console/internal/application/guard"
	appidentity "github.com/erp/catalog-console/internal/application/identity"
	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/application/session"
	"github.com/erp/catalog-console/internal/infrastructure/config"
	"github.com/erp/catalog-console/internal/infrastructure/gateway"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"github.com/erp/catalog-console/internal/infrastructure/telemetry"
	"github.com/erp/catalog-console/internal/interfaces/http/handler"
	"github.com/erp/catalog-console/internal/interfaces/http/middleware"
	"github.com/erp/catalog-console/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Bridge logs to the collector when enabled
	log := bootLog
	if providers.Logs.IsEnabled() {
		log, err = logger.New(logCfg, providers.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting catalog console",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("api", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
	)

	metrics, err := telemetry.NewClientMetrics(providers.Meter.Meter("catalog-console"))
	if err != nil {
		log.Fatal("Failed to create metrics", zap.Error(err))
	}

	sessionStorage, err := storage.Open(ctx, cfg.Storage, cfg.Redis, storage.Options{
		Logger:  log,
		Tracing: cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to open session storage", zap.Error(err))
	}
	defer func() {
		if err := sessionStorage.Close(); err != nil {
			log.Error("Error closing session storage", zap.Error(err))
		}
	}()

	// Session, navigation and backend client
	store := session.NewStore(sessionStorage, session.WithMetrics(metrics), session.WithLogger(log))
	nav := navigation.NewRecorder()
	client := gateway.New(gateway.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		Tracing:   cfg.Telemetry.Enabled,
	}, store, nav, gateway.WithMetrics(metrics), gateway.WithLogger(log))

	sessionGuard := guard.New(store, nav, log)
	sessionGuard.Watch(store)

	// Application services
	controller := appcatalog.NewController(client, cfg.UI.NoticeDuration, log)
	accounts := appidentity.NewAccountService(client, store, log)

	templates, err := handler.Templates()
	if err != nil {
		log.Fatal("Failed to parse templates", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.HTTP.HSTSEnabled
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     cfg.Telemetry.Enabled,
		Logger:      log,
		Templates:   templates,
		Meter:       providers.Meter.Meter("catalog-console"),
		Security:    &security,
	})
	if err != nil {
		log.Fatal("Failed to build console engine", zap.Error(err))
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	limiter := middleware.NewAttemptLimiter(cfg.HTTP.LoginAttempts, cfg.HTTP.LoginWindow)
	go limiter.Run(runCtx)
	consoleHandler := handler.NewConsoleHandler(store, sessionGuard, nav, controller, accounts, handler.Config{
		AppName:               cfg.App.Name,
		RegisterRedirectDelay: cfg.UI.RegisterRedirectDelay,
	})
	router.Console(engine, consoleHandler, sessionGuard, nav, router.WithAttemptLimiter(limiter))

	// Restore runs once; the guard shows the loading view until it finishes
	go func() {
		if err := store.Restore(runCtx); err != nil {
			log.Warn("Stored session discarded", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Console listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down console...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Console forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Console exited gracefully")
}
