package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luxbag/internal/config"
	"luxbag/internal/database"
	"luxbag/internal/design"
	"luxbag/internal/handler"
	"luxbag/internal/inventory"
	"luxbag/internal/loyalty"
	"luxbag/internal/ordercode"
	"luxbag/internal/repository"
	"luxbag/internal/router"
	"luxbag/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting luxbag API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	// Initialize repositories
	txs := repository.NewTransactor(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	customerRepo := repository.NewCustomerRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	designRepo := repository.NewDesignRepository(pool, logger)

	// Design images go to S3 with the local file system as fallback
	fileStore := design.NewFileStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL, logger)
	var s3Store design.Store
	if cfg.Storage.S3Enabled {
		s3Store, err = design.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 store, falling back to local file system only")
			s3Store = nil
		}
	} else {
		logger.Info().
			Str("dir", cfg.Storage.LocalDir).
			Msg("using local file system for design images (S3 disabled)")
	}
	designStore := design.NewFallbackStore(s3Store, fileStore, cfg.Storage.S3Enabled, logger)

	// Initialize ledgers
	stock := inventory.NewLedger(productRepo, logger)
	spend := loyalty.NewLedger(customerRepo, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, txs, stock, logger)
	customerService := service.NewCustomerService(customerRepo, logger)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Customers: customerRepo,
		Inventory: stock,
		Loyalty:   spend,
		Codes:     ordercode.NewGenerator(cfg.Orders.CodePrefix),
		Logger:    logger,
	})
	designService := service.NewDesignService(designRepo, designStore, cfg.Storage.MaxUploadBytes, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Products:    handler.NewProductHandler(productService, logger),
		Customers:   handler.NewCustomerHandler(customerService, logger),
		Orders:      handler.NewOrderHandler(orderService, logger),
		ClientOrder: handler.NewClientOrderHandler(orderService, logger),
		Designs:     handler.NewDesignHandler(designService, cfg.Storage.MaxUploadBytes, logger),
	}, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// In-flight checkouts finish before the pool is closed
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
