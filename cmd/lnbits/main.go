package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/api"
	"github.com/pieterjm/lnbits/internal/config"
	"github.com/pieterjm/lnbits/internal/db"
	"github.com/pieterjm/lnbits/internal/events"
	"github.com/pieterjm/lnbits/internal/lnurl"
	"github.com/pieterjm/lnbits/internal/metrics"
	"github.com/pieterjm/lnbits/internal/provider"
	"github.com/pieterjm/lnbits/internal/redeem"
	"github.com/pieterjm/lnbits/internal/repository"
	"github.com/pieterjm/lnbits/internal/service"
	"github.com/pieterjm/lnbits/internal/ws"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, "migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry := events.NewRegistry(logger)
	registry.SetHooks(m.RegistryHooks())

	adapter := ws.NewAdapter(registry, cfg.ListenerQueueSize, logger)
	adapter.SetHooks(m.WSHooks())

	store := repository.NewPgStore(pool)
	gateway := provider.NewGateway(cfg.NodeGatewayURL, cfg.GatewayTimeout)
	lnurlClient := lnurl.NewClient(gateway, cfg.LNURLTimeout, cfg.LNURLRateLimit, logger)

	// Context for all background redemption tasks; cancelled on shutdown.
	taskCtx, cancelTasks := context.WithCancel(ctx)
	defer cancelTasks()

	scheduler := redeem.NewScheduler(taskCtx, lnurlClient, logger)
	scheduler.SetHook(m.RedeemHook())

	withdrawSvc := lnurl.NewWithdrawService(
		store, gateway, scheduler,
		cfg.BaseURL, cfg.SiteTitle, cfg.MinWithdrawableMsat,
		logger,
	)
	withdrawSvc.SetHooks(m.WithdrawHooks())

	accounts := service.NewAccountService(store, logger)
	payments := service.NewPaymentService(store, registry, cfg.LNURLTimeout, logger)

	// ---- HTTP server ----
	router := api.NewRouter(
		withdrawSvc, accounts, payments, scheduler, adapter,
		int(cfg.FundingRedeemDelay.Seconds()),
		reg, logger,
	)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests (also drops live websockets).
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Cancel pending redemption delays and in-flight attempts.
	cancelTasks()

	// 3. Wait for background tasks to wind down.
	scheduler.Wait()

	logger.Info("server stopped cleanly")
}
