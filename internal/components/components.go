package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/myuop2024/pollwatch/internal/api"
	"github.com/myuop2024/pollwatch/internal/config"
	"github.com/myuop2024/pollwatch/internal/dispatch"
	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/internal/redis"
	"github.com/myuop2024/pollwatch/internal/service"
	"github.com/myuop2024/pollwatch/internal/storage/postgres"
)

type Components struct {
	logger         *slog.Logger
	HttpServer     *api.Server
	Postgres       *postgres.Postgres
	Redis          *redis.Redis
	DispatchQueue  *redis.DispatchQueue
	DispatchWorker *dispatch.Worker
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")
	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres", slog.Any("error", err))
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	queue := redis.NewDispatchQueue(redisClient.Client, "dispatch:queue")
	statsCache := redis.NewStatsCache(redisClient)

	senders := map[domain.Channel]dispatch.Sender{
		domain.ChannelSMS:   dispatch.NewGatewaySender(domain.ChannelSMS, cfg.Dispatch.SMSGatewayURL),
		domain.ChannelPush:  dispatch.NewGatewaySender(domain.ChannelPush, cfg.Dispatch.PushGatewayURL),
		domain.ChannelCall:  dispatch.NewGatewaySender(domain.ChannelCall, cfg.Dispatch.VoiceGatewayURL),
		domain.ChannelEmail: dispatch.NewEmailSender(cfg.Dispatch),
	}
	dispatcher := dispatch.NewDispatcher(senders, cfg.Dispatch.ChannelTimeout, logger)
	worker := dispatch.NewWorker(logger, queue, storage.Alerts(), dispatcher, cfg.Dispatch.RatePerSecond, cfg.Dispatch.Burst)

	alertSvc := service.NewAlertService(storage.Alerts(), queue, logger)
	lifecycleSvc := service.NewLifecycleService(storage.Alerts(), queue, logger,
		cfg.Dispatch.MaxEscalationLevel, cfg.Dispatch.EscalationRecipients)
	statsSvc := service.NewStatsService(storage.Stats(), statsCache, 5*time.Second, logger)

	srv := service.NewService(alertSvc, lifecycleSvc, statsSvc)

	httpServer := api.NewServer(cfg, logger, srv)
	logger.Info("Initialized server")

	return &Components{
		logger:         logger,
		HttpServer:     httpServer,
		Postgres:       storage,
		Redis:          redisClient,
		DispatchQueue:  queue,
		DispatchWorker: worker,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Shutting down components")

	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components shut down",
		slog.Duration("latency", time.Since(start)))
}
