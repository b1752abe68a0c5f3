package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSender records recipients and returns a configured error.
type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	delay time.Duration
}

func (f *fakeSender) Send(ctx context.Context, recipient, _ string) error {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, recipient)
	f.mu.Unlock()
	return nil
}

func TestDispatcher_AllChannelsSucceed(t *testing.T) {
	t.Parallel()

	sms := &fakeSender{}
	email := &fakeSender{}
	d := NewDispatcher(map[domain.Channel]Sender{
		domain.ChannelSMS:   sms,
		domain.ChannelEmail: email,
	}, time.Second, testLogger())

	id := uuid.New()
	results := d.Dispatch(context.Background(), id, domain.TriggerCreated,
		[]domain.Channel{domain.ChannelSMS, domain.ChannelEmail},
		[]string{"observer-7", "coordinator-2"}, "test")

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if !res.Succeeded {
			t.Fatalf("channel %s failed: %s", res.Channel, res.Error)
		}
		if res.AlertID != id {
			t.Fatalf("alert id not carried through")
		}
		if res.RecipientCount != 2 {
			t.Fatalf("expected recipient count 2, got %d", res.RecipientCount)
		}
	}
	if len(sms.sent) != 2 || len(email.sent) != 2 {
		t.Fatalf("expected each sender to deliver twice, got sms=%d email=%d", len(sms.sent), len(email.sent))
	}
}

// One channel failing must not poison the others; both results come back.
func TestDispatcher_PartialFailure(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(map[domain.Channel]Sender{
		domain.ChannelSMS:   &fakeSender{err: errors.New("gateway 502")},
		domain.ChannelEmail: &fakeSender{},
	}, time.Second, testLogger())

	results := d.Dispatch(context.Background(), uuid.New(), domain.TriggerCreated,
		[]domain.Channel{domain.ChannelSMS, domain.ChannelEmail},
		[]string{"observer-7"}, "test")

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byChannel := make(map[domain.Channel]domain.DispatchResult, 2)
	for _, res := range results {
		byChannel[res.Channel] = res
	}
	if byChannel[domain.ChannelSMS].Succeeded {
		t.Fatalf("sms should have failed")
	}
	if byChannel[domain.ChannelSMS].Error == "" {
		t.Fatalf("failed result must carry an error message")
	}
	if !byChannel[domain.ChannelEmail].Succeeded {
		t.Fatalf("email should have succeeded")
	}
}

func TestDispatcher_SlowChannelTimesOut(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(map[domain.Channel]Sender{
		domain.ChannelCall: &fakeSender{delay: 500 * time.Millisecond},
		domain.ChannelSMS:  &fakeSender{},
	}, 50*time.Millisecond, testLogger())

	start := time.Now()
	results := d.Dispatch(context.Background(), uuid.New(), domain.TriggerEscalated,
		[]domain.Channel{domain.ChannelCall, domain.ChannelSMS},
		[]string{"observer-7"}, "test")
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Fatalf("dispatch did not honor the per-channel timeout, took %s", elapsed)
	}

	byChannel := make(map[domain.Channel]domain.DispatchResult, 2)
	for _, res := range results {
		byChannel[res.Channel] = res
	}
	if byChannel[domain.ChannelCall].Succeeded {
		t.Fatalf("call channel should have timed out")
	}
	if byChannel[domain.ChannelCall].Error != "timeout" {
		t.Fatalf("expected error %q, got %q", "timeout", byChannel[domain.ChannelCall].Error)
	}
	if !byChannel[domain.ChannelSMS].Succeeded {
		t.Fatalf("sms should have succeeded")
	}
}

func TestDispatcher_MissingSender(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(map[domain.Channel]Sender{}, time.Second, testLogger())

	results := d.Dispatch(context.Background(), uuid.New(), domain.TriggerManual,
		[]domain.Channel{domain.ChannelPush}, []string{"observer-7"}, "test")

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Succeeded {
		t.Fatalf("dispatch without a sender must fail")
	}
	if results[0].Error == "" {
		t.Fatalf("expected an error message")
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	alert := &domain.Alert{
		Severity:    domain.SeverityHigh,
		Title:       "Long queue",
		Description: "3 hour wait reported",
		Location:    domain.Location{Parish: "St. Andrew"},
	}

	got := Message(alert)
	want := "[high] Long queue: 3 hour wait reported (parish: St. Andrew)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	alert.EscalationLevel = 2
	got = Message(alert)
	want = "[high] Long queue: 3 hour wait reported (parish: St. Andrew) [escalation level 2]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
