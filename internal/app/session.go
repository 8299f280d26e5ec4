package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/five82/bitdeck/internal/config"
	"github.com/five82/bitdeck/internal/dispatch"
	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/live"
	"github.com/five82/bitdeck/internal/metrics"
	"github.com/five82/bitdeck/internal/notify"
	"github.com/five82/bitdeck/internal/state"
)

// Session owns one client's worth of sync machinery: a store fed by a
// poller and a live channel, plus a dispatcher for operator commands. All
// of them report through the same notification hub.
type Session struct {
	Config     config.Config
	Client     *engine.Client
	Store      *state.Store
	Hub        *notify.Hub
	Metrics    *metrics.Metrics
	Poller     *Poller
	Dispatcher *dispatch.Dispatcher
	Live       *live.Manager

	mu     sync.Mutex
	liveFn func(live.State)
}

// SessionOption customizes NewSession.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	clock  clock.Clock
	dialer live.Dialer
}

// WithClock replaces the wall clock used by the poller and the live channel.
func WithClock(c clock.Clock) SessionOption {
	return func(o *sessionOptions) { o.clock = c }
}

// WithDialer replaces the live channel dialer.
func WithDialer(d live.Dialer) SessionOption {
	return func(o *sessionOptions) { o.dialer = d }
}

// NewSession wires the components for cfg. Nothing runs until Run.
func NewSession(cfg config.Config, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	client, err := engine.NewClient(cfg.EngineURL, engine.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("init engine client: %w", err)
	}

	s := &Session{
		Config:  cfg,
		Client:  client,
		Store:   &state.Store{},
		Hub:     notify.NewHub(),
		Metrics: metrics.New(),
	}
	s.Store.Subscribe(func(v state.View) {
		s.Metrics.SnapshotApplied(string(v.Source), len(v.Snapshot.Torrents), v.UpdatedAt)
	})
	s.Poller = NewPoller(PollerConfig{
		Client:   client,
		Store:    s.Store,
		Notifier: s.Hub,
		Metrics:  s.Metrics,
		Clock:    o.clock,
		Interval: cfg.PollInterval,
	})
	s.Dispatcher = dispatch.New(client, s.Poller, s.Hub, s.Metrics)
	s.Live = live.New(live.Options{
		URL:            client.LiveURL(),
		Dialer:         o.dialer,
		Store:          s.Store,
		Notifier:       s.Hub,
		Metrics:        s.Metrics,
		Clock:          o.clock,
		ReconnectDelay: cfg.ReconnectDelay,
		OnStateChange:  s.liveStateChanged,
	})
	return s, nil
}

// OnLiveState registers the single live state listener.
func (s *Session) OnLiveState(fn func(live.State)) {
	s.mu.Lock()
	s.liveFn = fn
	s.mu.Unlock()
}

func (s *Session) liveStateChanged(st live.State) {
	log.Debug().Str("state", st.String()).Msg("live channel state")
	s.mu.Lock()
	fn := s.liveFn
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// Run starts polling, the live channel and, when configured, the metrics
// endpoint. It returns when ctx is cancelled or a component fails.
func (s *Session) Run(ctx context.Context) error {
	log.Info().
		Str("engine", s.Client.BaseURL()).
		Str("live", s.Client.LiveURL()).
		Dur("poll_interval", s.Config.PollInterval).
		Msg("session starting")

	s.Live.Connect()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Poller.Run(ctx) })
	g.Go(func() error { return s.Live.Run(ctx) })
	g.Go(func() error {
		s.probe(ctx)
		return nil
	})
	if s.Config.MetricsAddr != "" {
		srv := metrics.NewServer(s.Metrics, s.Config.MetricsAddr)
		g.Go(func() error { return srv.Run(ctx) })
	}
	return g.Wait()
}

// probe logs the engine's session stats once at startup.
func (s *Session) probe(ctx context.Context) {
	stats, err := s.Client.FetchSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("engine session probe failed")
		}
		return
	}
	log.Info().
		Int("port", stats.Port).
		Int("torrents", stats.TorrentCount).
		Int("active", stats.Active).
		Msg("engine reachable")
}
