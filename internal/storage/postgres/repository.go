package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
)

// AlertRepository is the single source of truth for alerts. The transition
// methods are conditional updates keyed on the current status so the state
// machine holds even if two writers race past the service-level locks.
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

func (p *Postgres) Alerts() AlertRepository { return p.AlertRepo }
func (p *Postgres) Stats() StatsRepository  { return p.StatsRepo }
