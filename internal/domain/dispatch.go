package domain

import (
	"time"

	"github.com/google/uuid"
)

type DispatchTrigger string

const (
	TriggerCreated   DispatchTrigger = "created"
	TriggerEscalated DispatchTrigger = "escalated"
	TriggerManual    DispatchTrigger = "manual"
)

// DispatchResult records one delivery attempt on one channel. A failed
// channel never fails the operation that triggered it; the row is the
// degraded-delivery indicator operators act on.
type DispatchResult struct {
	ID             uuid.UUID       `json:"id"`
	AlertID        uuid.UUID       `json:"alert_id"`
	Channel        Channel         `json:"channel"`
	Trigger        DispatchTrigger `json:"trigger"`
	RecipientCount int             `json:"recipient_count"`
	Succeeded      bool            `json:"succeeded"`
	Error          string          `json:"error,omitempty"`
	AttemptedAt    time.Time       `json:"attempted_at"`
}

// DispatchJob is the queue payload between lifecycle operations and the
// dispatch worker.
type DispatchJob struct {
	AlertID    uuid.UUID       `json:"alert_id"`
	Trigger    DispatchTrigger `json:"trigger"`
	Channels   []Channel       `json:"channels"`
	Recipients []string        `json:"recipients"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
