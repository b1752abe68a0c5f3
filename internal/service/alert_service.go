package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
	"github.com/myuop2024/pollwatch/pkg/validator"
)

type alertService struct {
	repo   AlertRepository
	queue  DispatchQueue
	logger *slog.Logger
}

func NewAlertService(repo AlertRepository, queue DispatchQueue, logger *slog.Logger) AlertService {
	return &alertService{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

func (s *alertService) Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}

	alert := &domain.Alert{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Category:    req.Category,
		Location:    req.Location,
		Status:      domain.AlertActive,
		Channels:    req.Channels,
		Recipients:  req.Recipients,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, err
	}

	s.logger.Info("alert created",
		slog.String("id", alert.ID.String()),
		slog.String("severity", string(alert.Severity)),
		slog.String("parish", alert.Location.Parish),
	)

	s.enqueue(ctx, domain.DispatchJob{
		AlertID:    alert.ID,
		Trigger:    domain.TriggerCreated,
		Channels:   alert.Channels,
		Recipients: alert.Recipients,
		EnqueuedAt: time.Now().UTC(),
	})

	return alert, nil
}

func (s *alertService) Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	return s.repo.Get(ctx, id)
}

func (s *alertService) List(ctx context.Context, filter domain.ListAlertsFilter) ([]*domain.Alert, error) {
	return s.repo.List(ctx, filter)
}

func (s *alertService) ListDispatches(ctx context.Context, id uuid.UUID) ([]domain.DispatchResult, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListDispatches(ctx, id)
}

// Redispatch is the manual retry path for degraded delivery. Failed channels
// are never retried automatically; an operator picks the channels to retry.
func (s *alertService) Redispatch(ctx context.Context, id uuid.UUID, req domain.RedispatchRequest) (*domain.Alert, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}

	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Terminal() {
		return nil, fmt.Errorf("redispatch on resolved alert: %w", e.ErrInvalidTransition)
	}

	s.logger.Info("manual redispatch",
		slog.String("id", alert.ID.String()),
		slog.String("actor", req.Actor),
		slog.Int("channels", len(req.Channels)),
	)

	s.enqueue(ctx, domain.DispatchJob{
		AlertID:    alert.ID,
		Trigger:    domain.TriggerManual,
		Channels:   req.Channels,
		Recipients: alert.Recipients,
		EnqueuedAt: time.Now().UTC(),
	})

	return alert, nil
}

// enqueue failures are logged, not propagated: the alert already exists and
// that matters more than same-instant delivery.
func (s *alertService) enqueue(ctx context.Context, job domain.DispatchJob) {
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error("enqueue dispatch failed",
			slog.String("alert_id", job.AlertID.String()),
			slog.String("trigger", string(job.Trigger)),
			slog.Any("error", err),
		)
	}
}
