package domain

type CreateAlertRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Severity    Severity  `json:"severity" validate:"required,severity"`
	Category    string    `json:"category" validate:"required,max=100"`
	Location    Location  `json:"location"`
	Channels    []Channel `json:"channels" validate:"required,min=1,dive,channel"`
	Recipients  []string  `json:"recipients" validate:"required,min=1,dive,required"`
	CreatedBy   string    `json:"created_by" validate:"required"`
}

// ListAlertsFilter is a conjunction; a nil/empty dimension means "all".
type ListAlertsFilter struct {
	Severity *Severity
	Status   *AlertStatus
	Parish   string
	Search   string
}

type ListAlertsResponse struct {
	Alerts []*Alert `json:"alerts"`
	Count  int      `json:"count"`
}

type AcknowledgeRequest struct {
	Actor string `json:"actor" validate:"required"`
}

type ResolveRequest struct {
	Actor      string `json:"actor" validate:"required"`
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

type EscalateRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

type RedispatchRequest struct {
	Actor    string    `json:"actor" validate:"required"`
	Channels []Channel `json:"channels" validate:"required,min=1,dive,channel"`
}

type AlertStats struct {
	Total                  int64   `json:"total"`
	Active                 int64   `json:"active"`
	Critical               int64   `json:"critical"`
	AverageResponseSeconds float64 `json:"average_response_seconds"`
	EscalationRate         float64 `json:"escalation_rate"`
}
