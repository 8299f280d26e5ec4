// Package dispatch issues operator commands against the engine and keeps a
// given control from being fired twice while its request is in flight.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/metrics"
	"github.com/five82/bitdeck/internal/notify"
)

// ActionAdd identifies the add form's submit control.
const ActionAdd engine.Action = "add"

var (
	// ErrControlBusy is returned when the same control already has a request in flight.
	ErrControlBusy = errors.New("control busy")
	// ErrMagnetRequired is returned when an add form has no magnet URI.
	ErrMagnetRequired = errors.New("magnet uri required")
)

// Control is one clickable control: an action bound to a torrent. The add
// form's submit control uses ActionAdd with a zero JobID.
type Control struct {
	Action engine.Action
	JobID  int64
}

func (c Control) String() string {
	if c.Action == ActionAdd {
		return string(c.Action)
	}
	return fmt.Sprintf("%s/%d", c.Action, c.JobID)
}

// API is the slice of the engine client the dispatcher needs.
type API interface {
	AddTorrent(ctx context.Context, req engine.AddRequest) (int64, error)
	Control(ctx context.Context, action engine.Action, id int64) error
}

// Refresher triggers an immediate snapshot fetch.
type Refresher interface {
	FetchOnce(ctx context.Context) error
}

// Dispatcher runs actions and adds. It is safe for concurrent use.
type Dispatcher struct {
	api       API
	refresher Refresher
	notifier  notify.Notifier
	metrics   *metrics.Metrics

	mu       sync.Mutex
	inFlight map[Control]struct{}
}

// New builds a Dispatcher. refresher, notifier and m may be nil.
func New(api API, refresher Refresher, notifier notify.Notifier, m *metrics.Metrics) *Dispatcher {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Dispatcher{
		api:       api,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		inFlight:  make(map[Control]struct{}),
	}
}

// Disabled reports whether c has a request in flight.
func (d *Dispatcher) Disabled(c Control) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, busy := d.inFlight[c]
	return busy
}

func (d *Dispatcher) acquire(c Control) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[c]; busy {
		return false
	}
	d.inFlight[c] = struct{}{}
	return true
}

func (d *Dispatcher) release(c Control) {
	d.mu.Lock()
	delete(d.inFlight, c)
	d.mu.Unlock()
}

// Dispatch sends a pause, resume or remove for one torrent. On success it
// refreshes the snapshot before announcing the result; on failure it
// announces a generic error and leaves the snapshot alone.
func (d *Dispatcher) Dispatch(ctx context.Context, c Control) error {
	switch c.Action {
	case engine.ActionPause, engine.ActionResume, engine.ActionRemove:
	default:
		return fmt.Errorf("unsupported action %q", c.Action)
	}
	if !d.acquire(c) {
		return ErrControlBusy
	}
	defer d.release(c)

	err := d.api.Control(ctx, c.Action, c.JobID)
	d.metrics.ActionFinished(string(c.Action), err)
	if err != nil {
		log.Warn().Err(err).Str("action", string(c.Action)).Int64("torrent", c.JobID).Msg("torrent action failed")
		notify.Error(d.notifier, "Action failed")
		return fmt.Errorf("%s torrent %d: %w", c.Action, c.JobID, err)
	}

	log.Info().Str("action", string(c.Action)).Int64("torrent", c.JobID).Msg("torrent action accepted")
	d.refresh(ctx)
	notify.Success(d.notifier, fmt.Sprintf("Torrent %s", c.Action))
	return nil
}

// SubmitAdd validates the form and asks the engine to add the torrent.
// It returns the id the engine assigned.
func (d *Dispatcher) SubmitAdd(ctx context.Context, form AddForm) (int64, error) {
	req, err := form.Request()
	if err != nil {
		notify.Error(d.notifier, "Provide a magnet URI")
		return 0, err
	}

	c := Control{Action: ActionAdd}
	if !d.acquire(c) {
		return 0, ErrControlBusy
	}
	defer d.release(c)

	id, err := d.api.AddTorrent(ctx, req)
	d.metrics.ActionFinished(string(ActionAdd), err)
	if err != nil {
		log.Warn().Err(err).Str("name", req.Name).Msg("add torrent failed")
		notify.Error(d.notifier, "Add torrent failed")
		return 0, fmt.Errorf("add torrent: %w", err)
	}

	log.Info().Int64("torrent", id).Str("name", req.Name).Int64("size", req.Size).Msg("torrent added")
	notify.Success(d.notifier, "Torrent added")
	d.refresh(ctx)
	return id, nil
}

// refresh pulls a fresh snapshot. Fetch failures are reported by the
// refresher itself.
func (d *Dispatcher) refresh(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.FetchOnce(ctx); err != nil {
		log.Debug().Err(err).Msg("post-action refresh failed")
	}
}

// AddForm is the raw text of the add form.
type AddForm struct {
	Magnet string
	Name   string
	Size   string // MiB
}

// Request validates the form. Name is dropped when blank and Size when it
// does not parse to a finite positive number.
func (f AddForm) Request() (engine.AddRequest, error) {
	magnet := strings.TrimSpace(f.Magnet)
	if magnet == "" {
		return engine.AddRequest{}, ErrMagnetRequired
	}
	return engine.AddRequest{
		Magnet: magnet,
		Name:   strings.TrimSpace(f.Name),
		Size:   ParseSizeMiB(f.Size),
	}, nil
}

// ParseSizeMiB converts a size in MiB to bytes, rounding to the nearest
// byte. Anything unparsable, non-finite or not positive yields 0.
func ParseSizeMiB(s string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int64(math.Round(v * 1024 * 1024))
}
