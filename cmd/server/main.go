package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/backend"
	"expense-tracker/internal/config"
	apphttp "expense-tracker/internal/http"
	"expense-tracker/internal/repository/documents"
	"expense-tracker/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}()

	publisher := backend.NewPublisher(cfg, logger)
	defer publisher.Close()

	objects, err := backend.NewObjectStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	sheet, err := backend.NewSheet(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup sheets: %v", err)
	}

	expenseRepo := documents.NewExpenseRepository(store, logger)
	userRepo := documents.NewUserRepository(store)

	userService := service.NewUserService(userRepo, expenseRepo, logger)
	expenseService := service.NewExpenseService(expenseRepo, publisher, logger)
	exportService := service.NewExportService(expenseRepo, objects, sheet, service.ExportOptions{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLTTL:    cfg.ExportURLTTL(),
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		expenseService,
		exportService,
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
