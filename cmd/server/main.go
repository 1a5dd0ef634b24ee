package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.Migrate {
		if err := db.Migrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations applied")
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	eventPublisher := broker.NewEventPublisher(producer)

	images := &service.LocalImageStore{Dir: cfg.Uploads.Dir, MaxBytes: cfg.Uploads.MaxBytes}
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	authService := service.NewAuthService(db, db, redisClient, service.AuthConfig{
		Secret:            []byte(cfg.Auth.TokenSecret),
		TokenTTL:          time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
		AttemptsPerMinute: cfg.Auth.LoginAttemptsPerMinute,
	})
	orderService := service.NewOrderService(db, db, db, db, redisClient, eventPublisher, service.OrderConfig{
		LockTTL:             time.Duration(cfg.Business.CheckoutLockSeconds) * time.Second,
		OrderNumberAttempts: cfg.Business.OrderNumberAttempts,
		EnforceCatalogPrice: cfg.Business.EnforceCatalogPrice,
		DefaultPageSize:     cfg.Business.DefaultPageSize,
	})
	notificationService := service.NewNotificationService(db)

	services := api.Services{
		Auth:          authService,
		Catalog:       service.NewCatalogService(db, images, cfg.Business.LowStockThreshold, cfg.Business.DefaultPageSize),
		Cart:          service.NewCartService(db, db),
		Wishlist:      service.NewWishlistService(db, db),
		Addresses:     service.NewAddressService(db),
		Orders:        orderService,
		AdminOrders:   service.NewAdminOrderService(db, db, eventPublisher),
		Customers:     service.NewCustomerService(db),
		Refunds:       service.NewRefundService(db, db, eventPublisher),
		Reports:       service.NewReportService(db, db, db, db, db),
		Notifications: notificationService,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notificationConsumer, notificationService)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	janitor := worker.NewTokenJanitor(db, time.Hour)
	go func() {
		if err := janitor.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Token janitor error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Static(cfg.Uploads.PublicURL, cfg.Uploads.Dir)
	handler := api.NewHandler(services, authService, map[string]api.Pinger{
		"database": db,
		"redis":    redisClient,
	}, cfg.Uploads.PublicURL)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	notificationWorker.Stop()

	logger.Info("Server exited")
}
