package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumistore/internal/cache"
	"lumistore/internal/config"
	"lumistore/internal/database"
	"lumistore/internal/handler"
	"lumistore/internal/notification"
	"lumistore/internal/repository"
	"lumistore/internal/router"
	"lumistore/internal/service"
	"lumistore/internal/shipping"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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
	logger.Info().Msg("starting lumistore API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	configRepo := repository.NewConfigurationRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Initialize catalogue cache (optional)
	var productCache cache.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, catalogue cache disabled")
		} else {
			productCache = cache.NewRedisCache(client, "lumistore")
			defer client.Close()
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("catalogue cache enabled")
		}
	}

	// Load the shipping rate table with S3 and local-file fallback
	rates := loadShippingRates(ctx, cfg.Shipping, logger)

	// Initialize order event publisher (optional)
	var publisher notification.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = notification.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("order event publisher enabled")
	} else {
		publisher = notification.NewNoopPublisher()
		logger.Info().Msg("order event publishing disabled (no brokers configured)")
	}
	defer publisher.Close()

	// Initialize services
	productService := service.NewProductService(productRepo, productCache, logger)
	configurationService := service.NewConfigurationService(configRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, configRepo, rates, publisher, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	configurationHandler := handler.NewConfigurationHandler(configurationService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(productHandler, configurationHandler, orderHandler, cfg.Auth.JWTSecret, cfg.Auth.Issuer, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
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

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// loadShippingRates resolves the flat-rate table: S3 when configured, then a
// local file, then the built-in defaults. A load failure never blocks
// startup.
func loadShippingRates(ctx context.Context, cfg config.ShippingConfig, logger zerolog.Logger) *shipping.RateTable {
	if cfg.S3Bucket != "" {
		loader, err := shipping.NewS3Loader(ctx, cfg.S3Bucket, cfg.S3Region, logger)
		if err == nil {
			if rates, err := loader.Load(ctx, cfg.S3Key); err == nil {
				return rates
			} else {
				logger.Warn().Err(err).Msg("failed to load shipping rates from S3, trying local file")
			}
		} else {
			logger.Warn().Err(err).Msg("failed to initialise S3 rate loader, trying local file")
		}
	}

	if cfg.FilePath != "" {
		loader := shipping.NewFileLoader(logger)
		if rates, err := loader.Load(ctx, cfg.FilePath); err == nil {
			return rates
		} else {
			logger.Warn().Err(err).Str("file", cfg.FilePath).Msg("failed to load shipping rates file, using defaults")
		}
	}

	logger.Info().Msg("using built-in shipping rate table")
	return shipping.DefaultRates()
}
