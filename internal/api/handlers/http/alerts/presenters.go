package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	l.Error("handler error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	switch {
	case errors.Is(err, e.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, e.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidTransition):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "invalid transition"})
	case errors.Is(err, e.ErrTransientStore):
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable, retry"})
	default:
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func parseFilter(r *http.Request) (domain.ListAlertsFilter, error) {
	var filter domain.ListAlertsFilter
	q := r.URL.Query()

	if s := q.Get("severity"); s != "" {
		sev := domain.Severity(s)
		switch sev {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical:
			filter.Severity = &sev
		default:
			return filter, fmt.Errorf("unknown severity %q", s)
		}
	}
	if s := q.Get("status"); s != "" {
		st := domain.AlertStatus(s)
		switch st {
		case domain.AlertActive, domain.AlertAcknowledged, domain.AlertResolved, domain.AlertEscalated:
			filter.Status = &st
		default:
			return filter, fmt.Errorf("unknown status %q", s)
		}
	}
	filter.Parish = q.Get("parish")
	filter.Search = q.Get("search")

	return filter, nil
}
