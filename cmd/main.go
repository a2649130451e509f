package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"os/signal"
	"storefront-service/internal/api"
	"storefront-service/internal/config"
	"storefront-service/internal/events"
	"storefront-service/internal/idempotency"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/migrations"
	"syscall"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func connectDB(cfg config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < cfg.ConnectRetries; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to DB %s", cfg.Name)
				return db, nil
			}
			db.Close()
		}
		logger.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%s)", i+1, cfg.Name, cfg.Host, cfg.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.Name, cfg.Host, cfg.Port, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	db, err := connectDB(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(3, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate storefront tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer rdb.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if kafkaWriter := config.NewKafkaWriter(cfg.Kafka); kafkaWriter != nil {
		defer kafkaWriter.Close()
		publisher = events.NewKafkaPublisher(kafkaWriter)
	} else {
		logger.Info().Msg("No KAFKA_BROKERS configured, order events are disabled")
	}

	totalPolicy, err := service.ParseTotalPolicy(cfg.Orders.TotalPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid ORDER_TOTAL_POLICY")
	}
	transitions, err := service.ParseTransitionMode(cfg.Orders.StatusTransitions)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid STATUS_TRANSITIONS")
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	keys := idempotency.NewRedisStore(rdb, idempotency.DefaultTTL)

	e := api.NewServer(api.Services{
		Orders:    service.NewOrderService(orderRepo, service.NewOrderBuilder(totalPolicy), publisher, keys, transitions),
		Catalog:   service.NewCatalogService(productRepo, rdb, cfg.Catalog.CacheTTL),
		Customers: service.NewCustomerService(customerRepo),
		Auth:      service.NewAuthService(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.JWTSecret),
		Dashboard: service.NewDashboardService(dashboardRepo),
	}, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		RatePerSecond:  cfg.RateLimit.PerSecond,
		RateBurst:      cfg.RateLimit.Burst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}
}
