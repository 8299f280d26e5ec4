package app

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/metrics"
	"github.com/five82/bitdeck/internal/notify"
	"github.com/five82/bitdeck/internal/state"
)

// DefaultPollInterval is the fixed period between snapshot polls.
const DefaultPollInterval = 8 * time.Second

// SnapshotFetcher is the slice of the engine client the poller needs.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (engine.Snapshot, error)
}

// PollerConfig configures a Poller. Only Client and Store are required.
type PollerConfig struct {
	Client   SnapshotFetcher
	Store    *state.Store
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Interval time.Duration
}

// Poller refreshes the store from GET /api/torrents.
type Poller struct {
	client   SnapshotFetcher
	store    *state.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	interval time.Duration
}

// NewPoller applies defaults to cfg.
func NewPoller(cfg PollerConfig) *Poller {
	p := &Poller{
		client:   cfg.Client,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
		interval: cfg.Interval,
	}
	if p.notifier == nil {
		p.notifier = notify.Discard
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.interval <= 0 {
		p.interval = DefaultPollInterval
	}
	return p
}

// FetchOnce pulls one snapshot. On failure the current snapshot is kept,
// the failure is recorded on the store and an error toast is raised.
func (p *Poller) FetchOnce(ctx context.Context) error {
	snap, err := p.client.FetchSnapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; not worth a toast.
			return ctx.Err()
		}
		p.store.RecordFailure(err)
		p.metrics.PollFailed()
		log.Warn().Err(err).Msg("snapshot poll failed")
		notify.Error(p.notifier, "Failed to load torrents")
		return err
	}
	p.store.Replace(snap, state.SourcePoll)
	return nil
}

// Run loads immediately, then polls on a fixed period until ctx is done.
// Failures never stop the ticker and there is no backoff.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		_ = p.FetchOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
