package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/crypto"
	"github.com/iho/gobank/internal/infrastructure/eventpublisher"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/mailer"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/usecase"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Connect to Redis
	redisClient, err := redis.NewClientWithConfig(ctx, redis.ClientConfig{
		URL:         cfg.RedisURL,
		PoolSize:    cfg.RedisPoolSize,
		DialTimeout: cfg.RedisDialTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	cipher, err := crypto.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("init field cipher: %w", err)
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration, cfg.JWTRefreshSecret, cfg.JWTRefreshExpiration)
	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, appLogger)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier(cfg.SettlementMaxRetries, appLogger)
	idGen := postgresRepo.NewULIDGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	otpStore := redisRepo.NewOTPStore(redisClient)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, cipher)
	txnUC := usecase.NewTransactionUseCase(txManager, accountRepo, txnRepo, outboxRepo, idGen, retrier, transactionPolicy(cfg), m, appLogger)
	adminUC := usecase.NewAdminUseCase(txManager, accountRepo, outboxRepo, idGen, retrier, txnUC, m, appLogger)
	authUC := usecase.NewAuthUseCase(txManager, accountRepo, outboxRepo, idGen, cipher, jwtManager, otpStore, smtpMailer,
		usecase.AuthConfig{OTPTTL: cfg.OTPTTL}, m, appLogger)

	// Background workers
	publisher, closePublisher, err := newPublisher(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("init event publisher: %w", err)
	}
	defer closePublisher()

	go func() {
		ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Metrics:    m,
			Logger:     appLogger,
			Interval:   cfg.OutboxPollInterval,
		})
		if err := ep.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	cleanup := eventpublisher.NewCleanup(outboxRepo, cfg.OutboxRetention, m, appLogger)
	if err := cleanup.Start(cfg.OutboxCleanupSchedule); err != nil {
		return fmt.Errorf("schedule outbox cleanup: %w", err)
	}
	defer cleanup.Stop()

	go postgres.ReportPoolStats(ctx, pool, m.DBConnections, 15*time.Second)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go rateLimiter.Run(ctx, 5*time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:        handler.NewAuthHandler(authUC),
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(txnUC),
		AdminHandler:       handler.NewAdminHandler(adminUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Metrics:            m,
		RateLimiter:        rateLimiter,
		Logger:             appLogger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := newHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

func transactionPolicy(cfg *config.Config) usecase.TransactionPolicy {
	return usecase.TransactionPolicy{
		AutoApproveThreshold: cfg.AutoApproveThreshold,
		BlockFrozenApproval:  cfg.BlockFrozenApproval,
	}
}

// newPublisher picks RabbitMQ when AMQP_URL is set and falls back to logging.
func newPublisher(cfg *config.Config, l zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(l), func() {}, nil
	}

	p, err := eventpublisher.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, l)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			l.Warn().Err(err).Msg("failed to close amqp publisher")
		}
	}, nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

