package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/auth"
	"github.com/aman7661/sumitTradingCompany/internal/bootstrap"
	"github.com/aman7661/sumitTradingCompany/internal/config"
	"github.com/aman7661/sumitTradingCompany/internal/events"
	"github.com/aman7661/sumitTradingCompany/internal/handlers"
	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/routes"
	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.StoreConfig)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Storage ---
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg.StoreConfig, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. --- Order events ---
	m := metrics.New()
	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, m, logger)
		logger.Info("publishing order events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaOrderTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	// 3. --- Payment provider ---
	provider, err := bootstrap.NewPaymentProvider(cfg, logger)
	if err != nil {
		return err
	}

	// 4. --- Services ---
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	catalog := service.NewCatalogService(store.Products, m, logger)
	orders := service.NewOrderService(store, publisher, m, logger, service.OrderOptions{
		NumberPrefix:          cfg.OrderNumberPrefix,
		TotalTolerance:        cfg.OrderTotalTolerance,
		PermissiveTransitions: cfg.OrderTransitions == config.TransitionsPermissive,
	})

	app := &handlers.Handlers{
		Catalog:   catalog,
		Orders:    orders,
		Payments:  service.NewPaymentService(provider, orders, cfg.PaymentCurrency, logger),
		Users:     service.NewUserService(store.Users, tokens, logger),
		Logger:    logger,
		UploadDir: cfg.UploadDir,
		BaseURL:   cfg.BaseURL,
	}

	// 5. --- Background Workers ---
	// The low stock scan refreshes the gauge and logs products that need restocking.
	if cfg.LowStockScanInterval > 0 {
		go runLowStockScan(ctx, catalog, cfg.LowStockScanInterval, logger)
	}

	// 6. --- Router Setup ---
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, routes.Deps{
		Tokens:       tokens,
		Users:        store.Users,
		Metrics:      m,
		Logger:       logger,
		FrontendURL:  cfg.FrontendURL,
		TestPayments: cfg.TestPayments(),
	})

	// 7. --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting Sumit Trading Company API",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("payments", provider.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runLowStockScan(ctx context.Context, catalog *service.CatalogService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("background worker started: low stock scan", zap.Duration("interval", interval))
	scan := func() {
		if _, err := catalog.RefreshLowStock(ctx); err != nil && ctx.Err() == nil {
			logger.Error("low stock scan failed", zap.Error(err))
		}
	}

	scan()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scan()
		}
	}
}
