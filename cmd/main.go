package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/bracketops/live-console/config"
	"github.com/bracketops/live-console/db"
	"github.com/bracketops/live-console/handlers"
	"github.com/bracketops/live-console/repositories"
	api "github.com/bracketops/live-console/routes"
	"github.com/bracketops/live-console/services"
	"github.com/bracketops/live-console/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Snapshot archive (Cloudflare R2). Optional: archival is disabled
	// when the R2 settings are absent.
	var uploader storage.FileUploader
	if cfg.ArchiveConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("snapshot archival disabled: R2 configuration absent")
	}

	// Инициализация репозиториев
	snapshotStore := repositories.NewPostgresSnapshotStore(dbConn)
	matchInfoRepo := repositories.NewPostgresMatchInfoRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	liveService := services.NewLiveService(snapshotStore, matchInfoRepo, logger, services.LiveServiceConfig{
		AliveWeight:    cfg.AliveWeight,
		PersistTimeout: cfg.PersistTimeout,
	})
	archiveService := services.NewArchiveService(uploader)
	logger.Info("services initialized")

	// Планировщик фоновой выгрузки и эвикции неактивных матчей.
	schedulerStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.FlushInterval)
		defer ticker.Stop()
		logger.Info("live snapshot scheduler started",
			slog.Duration("interval", cfg.FlushInterval),
			slog.Duration("evict_after", cfg.EvictAfter))

		for {
			select {
			case <-ticker.C:
				if evicted := liveService.EvictInactive(context.Background(), cfg.EvictAfter); evicted > 0 {
					logger.Info("scheduler: evicted inactive matches", slog.Int("count", evicted))
				}
			case <-schedulerStop:
				return
			}
		}
	}()

	// Инициализация обработчиков HTTP
	liveHandler := handlers.NewLiveHandler(liveService, archiveService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, liveHandler, []byte(cfg.JWTSecretKey))
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		close(schedulerStop)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}

		// Flush every resident snapshot before the process exits.
		if err := liveService.FlushAll(shutdownCtx); err != nil {
			logger.Error("failed to flush snapshots on shutdown", slog.Any("error", err))
		} else {
			logger.Info("resident snapshots flushed")
		}
	}
	logger.Info("application exited")
}
