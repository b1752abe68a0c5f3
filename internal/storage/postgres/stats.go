package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
)

type StatsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStats(pool *pgxpool.Pool, logger *slog.Logger) *StatsRepo {
	return &StatsRepo{pool: pool, logger: logger}
}

func (r *StatsRepo) Aggregate(ctx context.Context) (*domain.AlertStats, error) {
	const op = "postgres.Stats.Aggregate"

	// escalation_rate counts alerts that were escalated at least once,
	// regardless of where they ended up.
	const query = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE severity = 'critical'),
			COALESCE(AVG(response_seconds), 0),
			CASE WHEN COUNT(*) = 0 THEN 0
				ELSE COUNT(*) FILTER (WHERE escalation_level > 0)::float / COUNT(*)
			END
		FROM alerts
	`

	var stats domain.AlertStats
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Critical,
		&stats.AverageResponseSeconds,
		&stats.EscalationRate,
	); err != nil {
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return &stats, nil
}
