package alerts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
)

type AlertOperations interface {
	Create(ctx context.Context, req domain.CreateAlertRequest) (*domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	List(ctx context.Context, filter domain.ListAlertsFilter) ([]*domain.Alert, error)
	ListDispatches(ctx context.Context, id uuid.UUID) ([]domain.DispatchResult, error)
	Redispatch(ctx context.Context, id uuid.UUID, req domain.RedispatchRequest) (*domain.Alert, error)
}

type LifecycleOperations interface {
	Acknowledge(ctx context.Context, id uuid.UUID, req domain.AcknowledgeRequest) (*domain.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID, req domain.ResolveRequest) (*domain.Alert, error)
	Escalate(ctx context.Context, id uuid.UUID, req domain.EscalateRequest) (*domain.Alert, error)
}

type StatsGetter interface {
	GetStats(ctx context.Context) (*domain.AlertStats, error)
}

type Handler struct {
	logger    *slog.Logger
	Alerts    AlertOperations
	Lifecycle LifecycleOperations
	Stats     StatsGetter
}

func NewHandler(logger *slog.Logger, alerts AlertOperations, lifecycle LifecycleOperations, stats StatsGetter) *Handler {
	return &Handler{
		logger:    logger,
		Alerts:    alerts,
		Lifecycle: lifecycle,
		Stats:     stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) AlertCreate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertCreate", slog.String("remote", r.RemoteAddr))

	var req domain.CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	l.Info("creating alert",
		slog.String("severity", string(req.Severity)),
		slog.String("parish", req.Location.Parish),
		slog.Int("channels", len(req.Channels)),
	)

	alert, err := h.Alerts.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert created", slog.String("id", alert.ID.String()))
	h.writeJSON(w, http.StatusCreated, alert)
}

func (h *Handler) AlertList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	filter, err := parseFilter(r)
	if err != nil {
		l.Warn("invalid filter", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	alerts, err := h.Alerts.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alerts listed", slog.Int("count", len(alerts)))
	h.writeJSON(w, http.StatusOK, domain.ListAlertsResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}

func (h *Handler) AlertGet(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertGet", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	alert, err := h.Alerts.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertStats(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertStats", slog.String("remote", r.RemoteAddr))

	stats, err := h.Stats.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AlertAcknowledge(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertAcknowledge", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Lifecycle.Acknowledge(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert acknowledged", slog.String("id", id.String()), slog.String("actor", req.Actor))
	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertResolve(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertResolve", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Lifecycle.Resolve(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert resolved", slog.String("id", id.String()), slog.String("actor", req.Actor))
	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertEscalate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertEscalate", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Lifecycle.Escalate(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert escalated", slog.String("id", id.String()), slog.Int("level", alert.EscalationLevel))
	h.writeJSON(w, http.StatusOK, alert)
}

func (h *Handler) AlertRedispatch(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertRedispatch", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.RedispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	alert, err := h.Alerts.Redispatch(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("alert redispatch queued", slog.String("id", id.String()), slog.String("actor", req.Actor))
	h.writeJSON(w, http.StatusAccepted, alert)
}

func (h *Handler) AlertDispatches(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AlertDispatches", slog.String("remote", r.RemoteAddr))

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	results, err := h.Alerts.ListDispatches(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"dispatches": results,
		"count":      len(results),
	})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log(r).Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
