package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token_portfolio/internal/app/service"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/infrastructure/configloader"
	"token_portfolio/internal/infrastructure/httpclient"
	"token_portfolio/internal/infrastructure/metrics"
	"token_portfolio/internal/infrastructure/restapi"
	"token_portfolio/internal/infrastructure/storage"
	"token_portfolio/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	configloader.LoadDotEnv(".env")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger.InstallSlog(zapLogger)
	appLogger := logger.NewZapAdapter(zapLogger)

	if zapLogger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshotStorage, err := storage.Open(ctx, cfg.Storage, logger.Named(appLogger, "storage"))
	if err != nil {
		zapLogger.Fatal("Failed to open snapshot storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	store := service.NewPortfolioStore(entity.DefaultPortfolioState(), logger.Named(appLogger, "store"))
	persistence := service.NewPersistenceAdapter(snapshotStorage, cfg.Storage.Key, logger.Named(appLogger, "persistence"), appMetrics,
		service.WithSaveTimeout(cfg.Storage.SaveTimeout()))

	restoreCtx, restoreCancel := context.WithTimeout(ctx, 10*time.Second)
	persistence.Restore(restoreCtx, store)
	restoreCancel()
	detach := persistence.Attach(store)

	client := httpclient.NewCoinGeckoClient(httpclient.CoinGeckoOptions{
		BaseURL:           cfg.CoinGecko.BaseURL,
		APIKey:            cfg.CoinGecko.APIKey,
		VsCurrency:        cfg.CoinGecko.VsCurrency,
		Timeout:           cfg.CoinGecko.RequestTimeout(),
		RequestsPerSecond: cfg.CoinGecko.RequestsPerSecond,
		Burst:             cfg.CoinGecko.Burst,
	}, zapLogger.Named("coingecko"), appMetrics)

	gateway := service.NewMarketGateway(client, service.GatewayConfig{
		VsCurrency:      cfg.CoinGecko.VsCurrency,
		Freshness:       cfg.MarketData.Freshness(),
		SearchTTL:       time.Duration(cfg.MarketData.SearchCacheSeconds) * time.Second,
		TrendingTTL:     time.Duration(cfg.MarketData.TrendingCacheSeconds) * time.Second,
		PollInterval:    cfg.MarketData.PollInterval(),
		FetchTimeout:    cfg.CoinGecko.RequestTimeout() + 5*time.Second,
		CleanupInterval: time.Duration(cfg.MarketData.CleanupIntervalMinute) * time.Minute,
		SearchMinLength: cfg.MarketData.SearchMinLength,
		SearchLimit:     cfg.MarketData.SearchLimit,
		TrendingLimit:   cfg.MarketData.TrendingLimit,
	}, logger.Named(appLogger, "gateway"), appMetrics)

	dashboard := service.NewDashboard(store, gateway, logger.Named(appLogger, "dashboard"), appMetrics)
	dashboard.Start()

	handler := restapi.NewPortfolioHandler(dashboard, cfg.CoinGecko.VsCurrency)
	router := restapi.SetupRouter(handler, restapi.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       reg,
		Logger:         zapLogger.Named("http"),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", "address", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", "error", err)
	}

	dashboard.Stop()
	gateway.Close()
	detach()
	if err := snapshotStorage.Close(); err != nil {
		appLogger.Error("Failed to close snapshot storage", "error", err)
	}
	cancel()

	appLogger.Info("Token portfolio stopped")
}
