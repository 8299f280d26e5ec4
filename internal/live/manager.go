package live

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/metrics"
	"github.com/five82/bitdeck/internal/notify"
	"github.com/five82/bitdeck/internal/state"
)

// State is the live channel lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
	ReconnectPending
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case ReconnectPending:
		return "reconnect-pending"
	default:
		return "disconnected"
	}
}

// DefaultReconnectDelay is the fixed wait between a closure and the next attempt.
const DefaultReconnectDelay = 2 * time.Second

// Conn is one receive-only live connection.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens live connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Options configure a Manager.
type Options struct {
	URL            string
	Dialer         Dialer // nil uses WebSocketDialer
	Store          *state.Store
	Notifier       notify.Notifier
	Metrics        *metrics.Metrics
	Clock          clock.Clock   // nil uses the wall clock
	ReconnectDelay time.Duration // zero uses DefaultReconnectDelay
	OnStateChange  func(State)   // called from the Run goroutine
}

type eventKind int

const (
	eventOpened eventKind = iota
	eventMessage
	eventClosed
)

type event struct {
	gen  uint64
	kind eventKind
	conn Conn
	data []byte
	err  error
}

// Manager owns the live connection, its attempt context and the reconnect
// timer. All three are touched only by the Run goroutine.
type Manager struct {
	url      string
	dialer   Dialer
	store    *state.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	delay    time.Duration
	onState  func(State)

	connectReq chan struct{}
	events     chan event
	state      atomic.Int32

	gen    uint64
	conn   Conn
	cancel context.CancelFunc
	timer  *clock.Timer
}

// New builds a Manager in the Disconnected state.
func New(opts Options) *Manager {
	m := &Manager{
		url:        opts.URL,
		dialer:     opts.Dialer,
		store:      opts.Store,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		delay:      opts.ReconnectDelay,
		onState:    opts.OnStateChange,
		connectReq: make(chan struct{}, 1),
		events:     make(chan event, 16),
	}
	if m.dialer == nil {
		m.dialer = WebSocketDialer{}
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.delay <= 0 {
		m.delay = DefaultReconnectDelay
	}
	if m.notifier == nil {
		m.notifier = notify.Discard
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Connect asks the manager to (re)connect now. It cancels a pending
// reconnect and closes any existing connection first. Safe to call before
// Run and from any goroutine; requests made while one is queued coalesce.
func (m *Manager) Connect() {
	select {
	case m.connectReq <- struct{}{}:
	default:
	}
}

// Run drives the state machine until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	defer m.shutdown()
	for {
		var timerC <-chan time.Time
		if m.timer != nil {
			timerC = m.timer.C
		}
		select {
		case <-ctx.Done():
			return nil
		case <-m.connectReq:
			m.connect(ctx)
		case <-timerC:
			m.timer = nil
			m.connect(ctx)
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

func (m *Manager) connect(ctx context.Context) {
	m.stopTimer()
	m.teardown()

	m.gen++
	attemptCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.setState(Connecting)
	log.Debug().Str("url", m.url).Uint64("attempt", m.gen).Msg("live channel connecting")

	go m.pump(attemptCtx, m.gen)
}

// pump dials and forwards everything the connection produces to Run.
func (m *Manager) pump(ctx context.Context, gen uint64) {
	conn, err := m.dialer.Dial(ctx, m.url)
	if err != nil {
		m.emit(ctx, event{gen: gen, kind: eventClosed, err: err})
		return
	}
	if !m.emit(ctx, event{gen: gen, kind: eventOpened, conn: conn}) {
		_ = conn.Close()
		return
	}
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			m.emit(ctx, event{gen: gen, kind: eventClosed, err: err})
			return
		}
		if !m.emit(ctx, event{gen: gen, kind: eventMessage, data: data}) {
			return
		}
	}
}

func (m *Manager) emit(ctx context.Context, ev event) bool {
	select {
	case m.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) handle(ev event) {
	if ev.gen != m.gen {
		// Superseded attempt.
		if ev.conn != nil {
			_ = ev.conn.Close()
		}
		return
	}

	switch ev.kind {
	case eventOpened:
		m.conn = ev.conn
		m.metrics.LiveConnected(true)
		m.setState(Open)
		log.Info().Str("url", m.url).Msg("live channel open")
		notify.Info(m.notifier, "Live updates connected")

	case eventMessage:
		snap, err := engine.DecodeSnapshot(ev.data)
		if err != nil {
			m.metrics.MalformedPayload(string(state.SourceLive))
			log.Warn().Err(err).Int("bytes", len(ev.data)).Msg("discarding live payload")
			return
		}
		if m.store != nil {
			m.store.Replace(snap, state.SourceLive)
		}

	case eventClosed:
		log.Info().Err(ev.err).Str("from", m.State().String()).Dur("retry_in", m.delay).Msg("live channel closed")
		m.teardown()
		m.scheduleReconnect()
	}
}

func (m *Manager) scheduleReconnect() {
	m.stopTimer()
	m.timer = m.clock.Timer(m.delay)
	m.metrics.ReconnectScheduled()
	m.setState(ReconnectPending)
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// teardown closes the current connection and cancels its attempt.
func (m *Manager) teardown() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
		m.metrics.LiveConnected(false)
	}
}

func (m *Manager) shutdown() {
	m.stopTimer()
	m.teardown()
	m.setState(Disconnected)
}

func (m *Manager) setState(s State) {
	if State(m.state.Swap(int32(s))) == s {
		return
	}
	if m.onState != nil {
		m.onState(s)
	}
}
