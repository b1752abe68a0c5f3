package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/myuop2024/pollwatch/internal/domain"
)

type statsService struct {
	repo   StatsRepository
	cache  StatsCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewStatsService(repo StatsRepository, cache StatsCache, ttl time.Duration, logger *slog.Logger) StatsService {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &statsService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetStats serves from the Redis cache when warm; staleness is bounded by the
// TTL, which sits under the stats polling interval.
func (s *statsService) GetStats(ctx context.Context) (*domain.AlertStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.repo.Aggregate(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", slog.Any("error", err))
		}
	}

	return stats, nil
}
