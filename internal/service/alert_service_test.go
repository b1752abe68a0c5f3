package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/myuop2024/pollwatch/internal/domain"
	"github.com/myuop2024/pollwatch/internal/service"
	mock_service "github.com/myuop2024/pollwatch/internal/service/mocks"
	"github.com/myuop2024/pollwatch/pkg/e"
)

// --- helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func validCreateRequest() domain.CreateAlertRequest {
	return domain.CreateAlertRequest{
		Title:       "Ballot box tampering reported",
		Description: "Observer reports seal broken at station 042",
		Severity:    domain.SeverityCritical,
		Category:    "ballot-integrity",
		Location:    domain.Location{Parish: "Kingston"},
		Channels:    []domain.Channel{domain.ChannelSMS, domain.ChannelEmail},
		Recipients:  []string{"observer-7", "coordinator-2"},
		CreatedBy:   "classifier",
	}
}

// --- Create ---

func TestAlertService_Create_OK_Defaults(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	var created *domain.Alert
	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *domain.Alert) error {
			created = alert
			return nil
		}).
		Times(1)

	var job domain.DispatchJob
	queue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, j domain.DispatchJob) error {
			job = j
			return nil
		}).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	alert, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if alert.ID == uuid.Nil {
		t.Fatalf("expected non-nil id")
	}
	if alert.Status != domain.AlertActive {
		t.Fatalf("expected status=%q, got=%q", domain.AlertActive, alert.Status)
	}
	if alert.EscalationLevel != 0 {
		t.Fatalf("expected escalation level 0, got %d", alert.EscalationLevel)
	}
	if alert.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
	if created == nil || created.ID != alert.ID {
		t.Fatalf("repo did not receive the created alert")
	}

	if job.AlertID != alert.ID {
		t.Fatalf("dispatch job alert id mismatch: %s vs %s", job.AlertID, alert.ID)
	}
	if job.Trigger != domain.TriggerCreated {
		t.Fatalf("expected trigger=%q, got=%q", domain.TriggerCreated, job.Trigger)
	}
	if len(job.Channels) != 2 || len(job.Recipients) != 2 {
		t.Fatalf("job channels/recipients mismatch: %+v", job)
	}
}

func TestAlertService_Create_EmptyChannels_Validation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	req := validCreateRequest()
	req.Channels = nil

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAlertService_Create_MissingParish_Validation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	req := validCreateRequest()
	req.Location.Parish = ""

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAlertService_Create_InvalidCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*domain.CreateAlertRequest)
	}{
		{"unknown_severity", func(r *domain.CreateAlertRequest) { r.Severity = "urgent" }},
		{"unknown_channel", func(r *domain.CreateAlertRequest) { r.Channels = []domain.Channel{"fax"} }},
		{"unknown_parish", func(r *domain.CreateAlertRequest) { r.Location.Parish = "Narnia" }},
		{"no_recipients", func(r *domain.CreateAlertRequest) { r.Recipients = nil }},
		{"no_title", func(r *domain.CreateAlertRequest) { r.Title = "" }},
		{"no_creator", func(r *domain.CreateAlertRequest) { r.CreatedBy = "" }},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mock_service.NewMockAlertRepository(ctrl)
			queue := mock_service.NewMockDispatchQueue(ctrl)

			svc := service.NewAlertService(repo, queue, newTestLogger())

			req := validCreateRequest()
			c.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			if !errors.Is(err, e.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAlertService_Create_RepoError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	wantErr := errors.New("db down")
	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(wantErr).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	_, err := svc.Create(context.Background(), validCreateRequest())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestAlertService_Create_EnqueueFailureDoesNotFailCreate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil).
		Times(1)
	queue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down")).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	alert, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("create must not fail on enqueue error, got %v", err)
	}
	if alert == nil {
		t.Fatalf("expected alert")
	}
}

// --- Redispatch ---

func TestAlertService_Redispatch_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	id := uuid.New()
	repo.EXPECT().
		Get(gomock.Any(), id).
		Return(&domain.Alert{
			ID:         id,
			Status:     domain.AlertActive,
			Recipients: []string{"observer-7"},
		}, nil).
		Times(1)

	var job domain.DispatchJob
	queue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, j domain.DispatchJob) error {
			job = j
			return nil
		}).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	_, err := svc.Redispatch(context.Background(), id, domain.RedispatchRequest{
		Actor:    "operator-1",
		Channels: []domain.Channel{domain.ChannelEmail},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if job.Trigger != domain.TriggerManual {
		t.Fatalf("expected trigger=%q, got=%q", domain.TriggerManual, job.Trigger)
	}
	if len(job.Channels) != 1 || job.Channels[0] != domain.ChannelEmail {
		t.Fatalf("unexpected channels: %+v", job.Channels)
	}
}

func TestAlertService_Redispatch_ResolvedAlert_Conflict(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	id := uuid.New()
	repo.EXPECT().
		Get(gomock.Any(), id).
		Return(&domain.Alert{ID: id, Status: domain.AlertResolved}, nil).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	_, err := svc.Redispatch(context.Background(), id, domain.RedispatchRequest{
		Actor:    "operator-1",
		Channels: []domain.Channel{domain.ChannelSMS},
	})
	if !errors.Is(err, e.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAlertService_Redispatch_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	id := uuid.New()
	repo.EXPECT().
		Get(gomock.Any(), id).
		Return(nil, e.ErrNotFound).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	_, err := svc.Redispatch(context.Background(), id, domain.RedispatchRequest{
		Actor:    "operator-1",
		Channels: []domain.Channel{domain.ChannelSMS},
	})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- List / Get passthrough ---

func TestAlertService_List_Delegates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	sev := domain.SeverityCritical
	filter := domain.ListAlertsFilter{Severity: &sev, Parish: "Kingston"}
	want := []*domain.Alert{{ID: uuid.New()}}

	repo.EXPECT().
		List(gomock.Any(), filter).
		Return(want, nil).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	got, err := svc.List(context.Background(), filter)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].ID != want[0].ID {
		t.Fatalf("unexpected list result: %+v", got)
	}
}

func TestAlertService_ListDispatches_UnknownAlert(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	queue := mock_service.NewMockDispatchQueue(ctrl)

	id := uuid.New()
	repo.EXPECT().
		Get(gomock.Any(), id).
		Return(nil, e.ErrNotFound).
		Times(1)

	svc := service.NewAlertService(repo, queue, newTestLogger())

	_, err := svc.ListDispatches(context.Background(), id)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
