package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
)

// Dispatcher fans an alert out to its channels, best effort. Channels run in
// parallel under a per-channel timeout; one channel failing or hanging never
// blocks the rest.
type Dispatcher struct {
	senders map[domain.Channel]Sender
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(senders map[domain.Channel]Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Dispatcher{
		senders: senders,
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, alertID uuid.UUID, trigger domain.DispatchTrigger, channels []domain.Channel, recipients []string, message string) []domain.DispatchResult {
	results := make([]domain.DispatchResult, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch domain.Channel) {
			defer wg.Done()
			results[i] = d.dispatchChannel(ctx, alertID, trigger, ch, recipients, message)
		}(i, ch)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) dispatchChannel(ctx context.Context, alertID uuid.UUID, trigger domain.DispatchTrigger, channel domain.Channel, recipients []string, message string) domain.DispatchResult {
	res := domain.DispatchResult{
		ID:             uuid.New(),
		AlertID:        alertID,
		Channel:        channel,
		Trigger:        trigger,
		RecipientCount: len(recipients),
		AttemptedAt:    time.Now().UTC(),
	}

	sender, ok := d.senders[channel]
	if !ok {
		res.Error = fmt.Sprintf("no sender configured for channel %q", channel)
		d.logger.Warn("dispatch skipped", slog.String("alert_id", alertID.String()), slog.String("channel", string(channel)), slog.String("error", res.Error))
		return res
	}

	chCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	for _, recipient := range recipients {
		if err := sender.Send(chCtx, recipient, message); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				res.Error = "timeout"
			} else {
				res.Error = err.Error()
			}
			d.logger.Warn("channel delivery failed",
				slog.String("alert_id", alertID.String()),
				slog.String("channel", string(channel)),
				slog.String("error", res.Error),
			)
			return res
		}
	}

	res.Succeeded = true
	return res
}

// Message renders the notification text sent on every channel.
func Message(alert *domain.Alert) string {
	msg := fmt.Sprintf("[%s] %s: %s (parish: %s)",
		alert.Severity, alert.Title, alert.Description, alert.Location.Parish)
	if alert.EscalationLevel > 0 {
		msg = fmt.Sprintf("%s [escalation level %d]", msg, alert.EscalationLevel)
	}
	return msg
}
