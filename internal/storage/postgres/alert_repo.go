package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
)

type AlertRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAlertRepo(pool *pgxpool.Pool, logger *slog.Logger) *AlertRepo {
	return &AlertRepo{pool: pool, logger: logger}
}

const alertColumns = `id, title, description, severity, category,
	station_code, parish, lat, lng,
	status, channels, recipients, created_by, created_at,
	acknowledged_by, acknowledged_at,
	resolved_by, resolved_at, resolution,
	escalated_by, escalated_at, escalation_reason, escalation_level,
	response_seconds`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var channels, recipients []string
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.Severity, &a.Category,
		&a.Location.StationCode, &a.Location.Parish, &a.Location.Lat, &a.Location.Lng,
		&a.Status, &channels, &recipients, &a.CreatedBy, &a.CreatedAt,
		&a.AcknowledgedBy, &a.AcknowledgedAt,
		&a.ResolvedBy, &a.ResolvedAt, &a.Resolution,
		&a.EscalatedBy, &a.EscalatedAt, &a.EscalationReason, &a.EscalationLevel,
		&a.ResponseSeconds,
	)
	if err != nil {
		return nil, err
	}
	a.Channels = make([]domain.Channel, len(channels))
	for i, c := range channels {
		a.Channels[i] = domain.Channel(c)
	}
	a.Recipients = recipients
	return &a, nil
}

func channelStrings(channels []domain.Channel) []string {
	out := make([]string, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}

func (r *AlertRepo) Create(ctx context.Context, alert *domain.Alert) error {
	const op = "postgres.Alert.Create"

	const query = `
		INSERT INTO alerts (id, title, description, severity, category,
			station_code, parish, lat, lng,
			status, channels, recipients, created_by, created_at, escalation_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if alert.Status == "" {
		alert.Status = domain.AlertActive
	}

	_, err := r.pool.Exec(ctx, query,
		alert.ID, alert.Title, alert.Description, alert.Severity, alert.Category,
		alert.Location.StationCode, alert.Location.Parish, alert.Location.Lat, alert.Location.Lng,
		alert.Status, channelStrings(alert.Channels), alert.Recipients,
		alert.CreatedBy, alert.CreatedAt, alert.EscalationLevel,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *AlertRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	const op = "postgres.Alert.Get"

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return alert, nil
}

func (r *AlertRepo) List(ctx context.Context, filter domain.ListAlertsFilter) ([]*domain.Alert, error) {
	const op = "postgres.Alert.List"

	var (
		conds []string
		args  []any
	)
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Parish != "" {
		args = append(args, filter.Parish)
		conds = append(conds, fmt.Sprintf("parish = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return alerts, nil
}

func (r *AlertRepo) Acknowledge(ctx context.Context, id uuid.UUID, actor string, at time.Time) (*domain.Alert, error) {
	const op = "postgres.Alert.Acknowledge"

	query := `
		UPDATE alerts
		SET status           = 'acknowledged',
			acknowledged_by  = $2,
			acknowledged_at  = $3,
			response_seconds = EXTRACT(EPOCH FROM ($3::timestamptz - created_at))
		WHERE id = $1 AND status IN ('active', 'escalated')
		RETURNING ` + alertColumns

	return r.transition(ctx, op, id, query, id, actor, at)
}

func (r *AlertRepo) Resolve(ctx context.Context, id uuid.UUID, actor, resolution string, at time.Time) (*domain.Alert, error) {
	const op = "postgres.Alert.Resolve"

	query := `
		UPDATE alerts
		SET status      = 'resolved',
			resolved_by = $2,
			resolution  = $3,
			resolved_at = $4
		WHERE id = $1 AND status = 'acknowledged'
		RETURNING ` + alertColumns

	return r.transition(ctx, op, id, query, id, actor, resolution, at)
}

func (r *AlertRepo) Escalate(ctx context.Context, id uuid.UUID, actor, reason string, at time.Time, maxLevel int) (*domain.Alert, error) {
	const op = "postgres.Alert.Escalate"

	query := `
		UPDATE alerts
		SET status            = 'escalated',
			escalated_by      = $2,
			escalation_reason = $3,
			escalated_at      = $4,
			escalation_level  = escalation_level + 1
		WHERE id = $1 AND status IN ('active', 'escalated') AND escalation_level < $5
		RETURNING ` + alertColumns

	return r.transition(ctx, op, id, query, id, actor, reason, at, maxLevel)
}

// transition runs a conditional update. Zero rows means either the alert is
// missing or the transition is not allowed from the current state; a follow-up
// Get tells the two apart.
func (r *AlertRepo) transition(ctx context.Context, op string, id uuid.UUID, query string, args ...any) (*domain.Alert, error) {
	alert, err := scanAlert(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return alert, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("db transition failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidTransition)
}

func (r *AlertRepo) RecordDispatches(ctx context.Context, results []domain.DispatchResult) error {
	const op = "postgres.Dispatch.Record"

	const query = `
		INSERT INTO dispatches (id, alert_id, channel, cause, recipient_count, succeeded, error, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, res := range results {
		if res.ID == uuid.Nil {
			res.ID = uuid.New()
		}
		if res.AttemptedAt.IsZero() {
			res.AttemptedAt = time.Now().UTC()
		}
		batch.Queue(query,
			res.ID, res.AlertID, res.Channel, res.Trigger,
			res.RecipientCount, res.Succeeded, res.Error, res.AttemptedAt,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("db batch failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *AlertRepo) ListDispatches(ctx context.Context, alertID uuid.UUID) ([]domain.DispatchResult, error) {
	const op = "postgres.Dispatch.List"

	const query = `
		SELECT id, alert_id, channel, cause, recipient_count, succeeded, error, attempted_at
		FROM dispatches
		WHERE alert_id = $1
		ORDER BY attempted_at DESC
	`

	rows, err := r.pool.Query(ctx, query, alertID)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var results []domain.DispatchResult
	for rows.Next() {
		var res domain.DispatchResult
		if err := rows.Scan(
			&res.ID, &res.AlertID, &res.Channel, &res.Trigger,
			&res.RecipientCount, &res.Succeeded, &res.Error, &res.AttemptedAt,
		); err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return results, nil
}
