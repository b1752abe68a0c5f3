package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/myuop2024/pollwatch/internal/domain"
)

const (
	DefaultListInterval  = 5 * time.Second
	DefaultStatsInterval = 10 * time.Second
)

// Poller keeps a consumer view of active alerts and stats fresh by interval
// re-fetch. There is no push channel; staleness is bounded by the intervals.
// Overlapping fetches are allowed, the reads are idempotent.
type Poller struct {
	logger        *slog.Logger
	client        *http.Client
	baseURL       string
	listInterval  time.Duration
	statsInterval time.Duration
	filter        domain.ListAlertsFilter

	onAlerts func([]*domain.Alert)
	onStats  func(*domain.AlertStats)
	onError  func(error)

	refresh chan struct{}
}

type Option func(*Poller)

func WithIntervals(list, stats time.Duration) Option {
	return func(p *Poller) {
		if list > 0 {
			p.listInterval = list
		}
		if stats > 0 {
			p.statsInterval = stats
		}
	}
}

func WithFilter(filter domain.ListAlertsFilter) Option {
	return func(p *Poller) {
		p.filter = filter
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Poller) {
		p.client = client
	}
}

func New(logger *slog.Logger, baseURL string, onAlerts func([]*domain.Alert), onStats func(*domain.AlertStats), onError func(error), opts ...Option) *Poller {
	p := &Poller{
		logger:        logger,
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       baseURL,
		listInterval:  DefaultListInterval,
		statsInterval: DefaultStatsInterval,
		onAlerts:      onAlerts,
		onStats:       onStats,
		onError:       onError,
		refresh:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh forces an immediate re-fetch of both the list and the stats,
// regardless of interval phase. Coalesces when a refresh is already pending.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. In-flight requests carry ctx, so
// teardown cancels them instead of letting them update a dead view.
func (p *Poller) Run(ctx context.Context) {
	listTicker := time.NewTicker(p.listInterval)
	defer listTicker.Stop()
	statsTicker := time.NewTicker(p.statsInterval)
	defer statsTicker.Stop()

	// initial fill, don't wait a full interval
	p.fetchAlerts(ctx)
	p.fetchStats(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-listTicker.C:
			p.fetchAlerts(ctx)
		case <-statsTicker.C:
			p.fetchStats(ctx)
		case <-p.refresh:
			p.fetchAlerts(ctx)
			p.fetchStats(ctx)
		}
	}
}

func (p *Poller) fetchAlerts(ctx context.Context) {
	var resp domain.ListAlertsResponse
	if err := p.getJSON(ctx, p.listURL(), &resp); err != nil {
		p.fail(fmt.Errorf("fetch alerts: %w", err))
		return
	}
	if p.onAlerts != nil {
		p.onAlerts(resp.Alerts)
	}
}

func (p *Poller) fetchStats(ctx context.Context) {
	var stats domain.AlertStats
	if err := p.getJSON(ctx, p.baseURL+"/api/v1/alerts/stats", &stats); err != nil {
		p.fail(fmt.Errorf("fetch stats: %w", err))
		return
	}
	if p.onStats != nil {
		p.onStats(&stats)
	}
}

func (p *Poller) listURL() string {
	q := url.Values{}
	if p.filter.Severity != nil {
		q.Set("severity", string(*p.filter.Severity))
	}
	if p.filter.Status != nil {
		q.Set("status", string(*p.filter.Status))
	}
	if p.filter.Parish != "" {
		q.Set("parish", p.filter.Parish)
	}
	if p.filter.Search != "" {
		q.Set("search", p.filter.Search)
	}

	u := p.baseURL + "/api/v1/alerts"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (p *Poller) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *Poller) fail(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	p.logger.Warn("poll failed", slog.Any("error", err))
	if p.onError != nil {
		p.onError(err)
	}
}
