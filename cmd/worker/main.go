package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/greenmantra/backend-store/internal/config"
	"github.com/greenmantra/backend-store/internal/export"
	"github.com/greenmantra/backend-store/internal/invoice"
	"github.com/greenmantra/backend-store/internal/lock"
	"github.com/greenmantra/backend-store/internal/obs"
	"github.com/greenmantra/backend-store/internal/order"
	"github.com/greenmantra/backend-store/internal/queue"
	"github.com/greenmantra/backend-store/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	store := order.NewStore(pool)

	renderer := export.NewChromePDF(export.ChromeConfig{
		RemoteURL: cfg.ChromeRemoteURL,
		NoSandbox: cfg.ChromeNoSandbox,
		Timeout:   cfg.RenderTimeout,
		Logger:    logger,
	})
	defer renderer.Close()

	exportSvc := &export.Service{
		Issuer: invoice.Issuer{
			Name:         cfg.Issuer.Name,
			Tagline:      cfg.Issuer.Tagline,
			GSTIN:        cfg.Issuer.GSTIN,
			PAN:          cfg.Issuer.PAN,
			Phone:        cfg.Issuer.Phone,
			Jurisdiction: cfg.Issuer.Jurisdiction,
		},
		Renderer: renderer,
		Redis:    redisClient,
		Locker:   lock.Locker{R: redisClient},
		Breaker:  resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("chrome-render").WithLogger(logger),
		TTL:      cfg.InvoiceCacheTTL,
		Log:      logger,
	}

	worker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueuePrefix,
		Concurrency:       cfg.QueueConcurrency,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		RetryBase:         cfg.QueueRetryBase,
		RetryJitter:       0.2,
		Log:               logger,
		Handler: func(jobCtx context.Context, orderID string) error {
			o, err := store.Get(jobCtx, orderID)
			if err != nil {
				if errors.Is(err, order.ErrNotFound) {
					logger.Warn().Str("order_id", orderID).Msg("prerender for unknown order dropped")
					return nil
				}
				return err
			}
			_, err = exportSvc.PDF(jobCtx, o)
			return err
		},
	}

	logger.Info().Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "store-worker"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}
