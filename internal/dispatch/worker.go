package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/pkg/e"
)

type AlertStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	RecordDispatches(ctx context.Context, results []domain.DispatchResult) error
}

type Queue interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.DispatchJob, error)
}

// Worker drains the dispatch queue. The token bucket is the throttling
// policy for bulk bursts: enqueue is cheap and unbounded, delivery is paced.
type Worker struct {
	logger     *slog.Logger
	queue      Queue
	store      AlertStore
	dispatcher *Dispatcher
	limiter    *rate.Limiter
}

func NewWorker(logger *slog.Logger, queue Queue, store AlertStore, dispatcher *Dispatcher, perSecond float64, burst int) *Worker {
	return &Worker{
		logger:     logger,
		queue:      queue,
		store:      store,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("dispatch worker STARTED")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dispatch worker STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		default:
		}

		job, err := w.queue.BRPop(ctx, 5*time.Second)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("BRPop failed", slog.Any("error", err))
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := w.limiter.Wait(ctx); err != nil {
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job domain.DispatchJob) {
	alert, err := w.store.Get(ctx, job.AlertID)
	if err != nil {
		w.logger.Error("alert lookup failed", slog.String("alert_id", job.AlertID.String()), slog.Any("error", err))
		return
	}
	if alert.Terminal() {
		w.logger.Info("skipping dispatch for resolved alert", slog.String("alert_id", alert.ID.String()))
		return
	}

	results := w.dispatcher.Dispatch(ctx, alert.ID, job.Trigger, job.Channels, job.Recipients, Message(alert))

	failed := 0
	for _, res := range results {
		if !res.Succeeded {
			failed++
		}
	}
	w.logger.Info("dispatch completed",
		slog.String("alert_id", alert.ID.String()),
		slog.String("trigger", string(job.Trigger)),
		slog.Int("channels", len(results)),
		slog.Int("failed", failed),
	)

	if err := w.store.RecordDispatches(ctx, results); err != nil {
		w.logger.Error("record dispatches failed", slog.String("alert_id", alert.ID.String()), slog.Any("error", err))
	}
}
