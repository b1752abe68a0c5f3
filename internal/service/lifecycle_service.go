package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
	"github.com/myuop2024/pollwatch/pkg/validator"
)

type lifecycleService struct {
	repo                 AlertRepository
	queue                DispatchQueue
	logger               *slog.Logger
	maxEscalationLevel   int
	escalationRecipients []string

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLifecycleService(repo AlertRepository, queue DispatchQueue, logger *slog.Logger, maxEscalationLevel int, escalationRecipients []string) LifecycleService {
	if maxEscalationLevel < 1 {
		maxEscalationLevel = 5
	}
	return &lifecycleService{
		repo:                 repo,
		queue:                queue,
		logger:               logger,
		maxEscalationLevel:   maxEscalationLevel,
		escalationRecipients: escalationRecipients,
		locks:                make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockAlert serializes transitions per alert id. Lock entries are kept for
// the process lifetime, same as the alerts they guard.
func (s *lifecycleService) lockAlert(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *lifecycleService) Acknowledge(ctx context.Context, id uuid.UUID, req domain.AcknowledgeRequest) (*domain.Alert, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}

	unlock := s.lockAlert(id)
	defer unlock()

	alert, err := s.repo.Acknowledge(ctx, id, req.Actor, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("alert acknowledged",
		slog.String("id", alert.ID.String()),
		slog.String("actor", req.Actor),
	)
	return alert, nil
}

func (s *lifecycleService) Resolve(ctx context.Context, id uuid.UUID, req domain.ResolveRequest) (*domain.Alert, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}

	unlock := s.lockAlert(id)
	defer unlock()

	alert, err := s.repo.Resolve(ctx, id, req.Actor, req.Resolution, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("alert resolved",
		slog.String("id", alert.ID.String()),
		slog.String("actor", req.Actor),
	)
	return alert, nil
}

func (s *lifecycleService) Escalate(ctx context.Context, id uuid.UUID, req domain.EscalateRequest) (*domain.Alert, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
	}

	unlock := s.lockAlert(id)
	defer unlock()

	alert, err := s.repo.Escalate(ctx, id, req.Actor, req.Reason, time.Now().UTC(), s.maxEscalationLevel)
	if err != nil {
		return nil, err
	}

	s.logger.Info("alert escalated",
		slog.String("id", alert.ID.String()),
		slog.String("actor", req.Actor),
		slog.Int("level", alert.EscalationLevel),
	)

	job := domain.DispatchJob{
		AlertID:    alert.ID,
		Trigger:    domain.TriggerEscalated,
		Channels:   alert.Channels,
		Recipients: broadenRecipients(alert.Recipients, s.escalationRecipients),
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error("enqueue escalation dispatch failed",
			slog.String("alert_id", alert.ID.String()),
			slog.Any("error", err),
		)
	}

	return alert, nil
}

// broadenRecipients unions the alert's own recipients with the escalation
// contacts, preserving order and dropping duplicates.
func broadenRecipients(base, escalation []string) []string {
	seen := make(map[string]struct{}, len(base)+len(escalation))
	out := make([]string, 0, len(base)+len(escalation))
	for _, r := range base {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, r := range escalation {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
