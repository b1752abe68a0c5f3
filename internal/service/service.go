package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	List(ctx context.Context, filter domain.ListAlertsFilter) ([]*domain.Alert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, actor string, at time.Time) (*domain.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID, actor, resolution string, at time.Time) (*domain.Alert, error)
	Escalate(ctx context.Context, id uuid.UUID, actor, reason string, at time.Time, maxLevel int) (*domain.Alert, error)
	RecordDispatches(ctx context.Context, results []domain.DispatchResult) error
	ListDispatches(ctx context.Context, alertID uuid.UUID) ([]domain.DispatchResult, error)
}

type StatsRepository interface {
	Aggregate(ctx context.Context) (*domain.AlertStats, error)
}

type DispatchQueue interface {
	Enqueue(ctx context.Context, job domain.DispatchJob) error
}

type StatsCache interface {
	Get(ctx context.Context) (*domain.AlertStats, error)
	Set(ctx context.Context, stats *domain.AlertStats, ttl time.Duration) error
}

// Alert use-cases: creation, queries, manual re-dispatch.
type AlertService interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	List(ctx context.Context, filter domain.ListAlertsFilter) ([]*domain.Alert, error)
	ListDispatches(ctx context.Context, id uuid.UUID) ([]domain.DispatchResult, error)
	Redispatch(ctx context.Context, id uuid.UUID, req domain.RedispatchRequest) (*domain.Alert, error)
}

// Lifecycle transitions; the only writers of alert status.
type LifecycleService interface {
	Acknowledge(ctx context.Context, id uuid.UUID, req domain.AcknowledgeRequest) (*domain.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID, req domain.ResolveRequest) (*domain.Alert, error)
	Escalate(ctx context.Context, id uuid.UUID, req domain.EscalateRequest) (*domain.Alert, error)
}

type StatsService interface {
	GetStats(ctx context.Context) (*domain.AlertStats, error)
}

type Service struct {
	AlertService     AlertService
	LifecycleService LifecycleService
	StatsService     StatsService
}

func NewService(
	alertService AlertService,
	lifecycleService LifecycleService,
	statsService StatsService,
) *Service {
	return &Service{
		AlertService:     alertService,
		LifecycleService: lifecycleService,
		StatsService:     statsService,
	}
}
