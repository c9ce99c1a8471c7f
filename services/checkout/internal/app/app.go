package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgauth "github.com/ozanyurtsever/shopcore/pkg/auth"
	"github.com/ozanyurtsever/shopcore/pkg/database"
	"github.com/ozanyurtsever/shopcore/pkg/health"
	"github.com/ozanyurtsever/shopcore/pkg/httpclient"
	pkgkafka "github.com/ozanyurtsever/shopcore/pkg/kafka"
	"github.com/ozanyurtsever/shopcore/pkg/tracing"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/config"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/event"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/gateway"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/guard"
	handler "github.com/ozanyurtsever/shopcore/services/checkout/internal/handler/http"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/service"
)

// App wires together all dependencies and runs the checkout service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	redisClient    *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "checkout",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("db", cfg.RedisDB),
	)

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Cart and order calls use short timeouts without internal retries;
	// the orchestrator decides what a failure means for the attempt.
	directClient := httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    time.Second,
		MaxConnsPerHost: 100,
	})
	pricingBreaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("catalog-pricing"),
		logger,
	)

	cartGateway := gateway.NewCartClient(cfg.CartServiceURL, directClient)
	pricingClient := gateway.NewPricingClient(cfg.CatalogServiceURL, pricingBreaker)
	orderClient := gateway.NewOrderClient(cfg.OrderServiceURL, directClient)

	checkoutGuard := guard.NewRedis(redisClient, logger)
	eventProducer := event.NewProducer(producer, logger)
	checkoutService := service.NewCheckoutService(
		cartGateway, pricingClient, orderClient, checkoutGuard, eventProducer, logger,
		service.StepTimeouts{
			FetchCart:     time.Duration(cfg.StepCartTimeout) * time.Second,
			ResolvePrices: time.Duration(cfg.StepPricingTimeout) * time.Second,
			PersistOrder:  time.Duration(cfg.StepOrderTimeout) * time.Second,
			ClearCart:     time.Duration(cfg.StepClearTimeout) * time.Second,
		},
	)

	tokenValidator := pkgauth.NewTokenValidator(cfg.JWTSecret)

	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(checkoutService, tokenValidator, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops components in order: drain HTTP, flush tracer, close the
// Kafka producer, close Redis.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
