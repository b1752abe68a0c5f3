package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/internal/service"
	mock_service "github.com/myuop2024/pollwatch/internal/service/mocks"
)

func TestStatsService_CacheHit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockStatsRepository(ctrl)
	cache := mock_service.NewMockStatsCache(ctrl)

	want := &domain.AlertStats{Total: 12, Active: 3, Critical: 1, AverageResponseSeconds: 95.5, EscalationRate: 0.25}
	cache.EXPECT().
		Get(gomock.Any()).
		Return(want, nil).
		Times(1)

	svc := service.NewStatsService(repo, cache, 5*time.Second, newTestLogger())

	got, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != want {
		t.Fatalf("expected cached stats back, got %+v", got)
	}
}

func TestStatsService_CacheMiss_AggregatesAndFills(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockStatsRepository(ctrl)
	cache := mock_service.NewMockStatsCache(ctrl)

	want := &domain.AlertStats{Total: 4, Active: 4}

	cache.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(1)
	repo.EXPECT().Aggregate(gomock.Any()).Return(want, nil).Times(1)
	cache.EXPECT().Set(gomock.Any(), want, 5*time.Second).Return(nil).Times(1)

	svc := service.NewStatsService(repo, cache, 5*time.Second, newTestLogger())

	got, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Total != 4 || got.Active != 4 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestStatsService_CacheErrorsAreSoft(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockStatsRepository(ctrl)
	cache := mock_service.NewMockStatsCache(ctrl)

	want := &domain.AlertStats{Total: 2}

	cache.EXPECT().Get(gomock.Any()).Return(nil, errors.New("redis down")).Times(1)
	repo.EXPECT().Aggregate(gomock.Any()).Return(want, nil).Times(1)
	cache.EXPECT().Set(gomock.Any(), want, gomock.Any()).Return(errors.New("redis down")).Times(1)

	svc := service.NewStatsService(repo, cache, 5*time.Second, newTestLogger())

	got, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("cache failures must not surface, got %v", err)
	}
	if got.Total != 2 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestStatsService_AggregateError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockStatsRepository(ctrl)
	cache := mock_service.NewMockStatsCache(ctrl)

	cache.EXPECT().Get(gomock.Any()).Return(nil, nil).Times(1)
	repo.EXPECT().Aggregate(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	svc := service.NewStatsService(repo, cache, 5*time.Second, newTestLogger())

	if _, err := svc.GetStats(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
