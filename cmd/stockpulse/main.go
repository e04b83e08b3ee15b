package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockpulse/stockpulse/internal/app"
	"github.com/stockpulse/stockpulse/internal/platform/db"
	"github.com/stockpulse/stockpulse/internal/reports"
	"github.com/stockpulse/stockpulse/internal/reports/export"
	reporthttp "github.com/stockpulse/stockpulse/internal/reports/http"
	"github.com/stockpulse/stockpulse/internal/reports/ledger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var cache *reports.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		cache = reports.NewCache(redisClient, cfg.CacheTTL)
		if err := cache.ListenForInvalidation(ctx, ""); err != nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}

	reportRepo := reports.NewPGRepository(dbpool)
	reportService := reports.NewService(reportRepo, cache, logger, cfg.QueryTimeout)

	exporter := export.NewExporter(cfg.ExportDir, logger)

	ledgerRepo := ledger.NewPGRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, cfg.ExportDir, reporthttp.FileBasePath)

	reportHandler := reporthttp.NewHandler(logger, reportService, exporter, ledgerService)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ReportHandler: reportHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
