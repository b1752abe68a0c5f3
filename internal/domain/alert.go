package domain

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertEscalated    AlertStatus = "escalated"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelCall  Channel = "call"
	ChannelPush  Channel = "push"
)

// Location pins an alert to a polling station. Parish is the coarse filter
// dimension; station and coordinates are optional detail.
type Location struct {
	StationCode *string  `json:"station_code,omitempty"`
	Parish      string   `json:"parish" validate:"required,parish"`
	Lat         *float64 `json:"lat,omitempty" validate:"omitempty,lat"`
	Lng         *float64 `json:"lng,omitempty" validate:"omitempty,lng"`
}

type Alert struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Category    string      `json:"category"`
	Location    Location    `json:"location"`
	Status      AlertStatus `json:"status"`
	Channels    []Channel   `json:"channels"`
	Recipients  []string    `json:"recipients"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`

	ResolvedBy *string    `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Resolution *string    `json:"resolution,omitempty"`

	EscalatedBy      *string    `json:"escalated_by,omitempty"`
	EscalatedAt      *time.Time `json:"escalated_at,omitempty"`
	EscalationReason *string    `json:"escalation_reason,omitempty"`
	EscalationLevel  int        `json:"escalation_level"`

	// ResponseSeconds is acknowledged_at - created_at, set once on acknowledge.
	ResponseSeconds *float64 `json:"response_seconds,omitempty"`
}

func (a *Alert) Terminal() bool {
	return a.Status == AlertResolved
}
