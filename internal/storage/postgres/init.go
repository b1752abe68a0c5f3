package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myuop2024/pollwatch/internal/config"
	"github.com/myuop2024/pollwatch/pkg/e"
)

type Postgres struct {
	Pool      *pgxpool.Pool
	AlertRepo AlertRepository
	StatsRepo StatsRepository
}

func NewPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Database,
		cfg.Postgres.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("Failed to parse pgx config", slog.String("error", err.Error()))
		return nil, e.Wrap("storage.pg.NewPostgres.ParseConfig", err)
	}
	poolCfg.MaxConns = cfg.Postgres.MaxConns
	poolCfg.MinConns = cfg.Postgres.MinConns
	poolCfg.MaxConnLifetime = cfg.Postgres.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Failed to create pgx pool", slog.String("error", err.Error()))
		return nil, e.Wrap("storage.pg.NewPostgres.NewWithConfig", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Failed to ping Postgres database", slog.String("error", err.Error()))
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.Ping", err)
	}
	logger.Info("Connected to Postgres successfully")

	if err := setupSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.setupSchema", err)
	}

	return &Postgres{
		Pool:      pool,
		AlertRepo: NewAlertRepo(pool, logger),
		StatsRepo: NewStats(pool, logger),
	}, nil
}

func setupSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id                UUID PRIMARY KEY,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	severity          TEXT NOT NULL,
	category          TEXT NOT NULL,
	station_code      TEXT,
	parish            TEXT NOT NULL,
	lat               DOUBLE PRECISION,
	lng               DOUBLE PRECISION,
	status            TEXT NOT NULL,
	channels          TEXT[] NOT NULL,
	recipients        TEXT[] NOT NULL,
	created_by        TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	acknowledged_by   TEXT,
	acknowledged_at   TIMESTAMPTZ,
	resolved_by       TEXT,
	resolved_at       TIMESTAMPTZ,
	resolution        TEXT,
	escalated_by      TEXT,
	escalated_at      TIMESTAMPTZ,
	escalation_reason TEXT,
	escalation_level  INT NOT NULL DEFAULT 0,
	response_seconds  DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts (status);
CREATE INDEX IF NOT EXISTS idx_alerts_parish ON alerts (parish);

CREATE TABLE IF NOT EXISTS dispatches (
	id              UUID PRIMARY KEY,
	alert_id        UUID NOT NULL REFERENCES alerts (id),
	channel         TEXT NOT NULL,
	cause           TEXT NOT NULL,
	recipient_count INT NOT NULL,
	succeeded       BOOLEAN NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	attempted_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatches_alert_id ON dispatches (alert_id);
`
	_, err := pool.Exec(ctx, schema)
	return err
}
