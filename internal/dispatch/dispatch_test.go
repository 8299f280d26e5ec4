package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/notify"
)

type controlCall struct {
	action engine.Action
	id     int64
}

// fakeAPI blocks every call on gate when gate is non-nil.
type fakeAPI struct {
	mu       sync.Mutex
	gate     chan struct{}
	err      error
	addID    int64
	controls []controlCall
	adds     []engine.AddRequest
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) Control(ctx context.Context, action engine.Action, id int64) error {
	f.mu.Lock()
	f.controls = append(f.controls, controlCall{action, id})
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.err
}

func (f *fakeAPI) AddTorrent(ctx context.Context, req engine.AddRequest) (int64, error) {
	f.mu.Lock()
	f.adds = append(f.adds, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return f.addID, f.err
}

func (f *fakeAPI) controlCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.controls)
}

func (f *fakeAPI) addCalls() []engine.AddRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.AddRequest(nil), f.adds...)
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) FetchOnce(context.Context) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recorder struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

func (r *recorder) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return notify.Notification{}
	}
	return r.items[len(r.items)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func TestDispatch_SuccessRefreshesThenNotifies(t *testing.T) {
	api := &fakeAPI{}
	ref := &countingRefresher{}
	notes := &recorder{}
	d := New(api, ref, notes, nil)

	err := d.Dispatch(context.Background(), Control{Action: engine.ActionPause, JobID: 3})
	require.NoError(t, err)

	assert.Equal(t, []controlCall{{engine.ActionPause, 3}}, api.controls)
	assert.Equal(t, 1, ref.count())
	assert.Equal(t, notify.KindSuccess, notes.last().Kind)
	assert.Equal(t, "Torrent pause", notes.last().Message)
}

func TestDispatch_FailureNotifiesWithoutRefresh(t *testing.T) {
	api := &fakeAPI{err: &engine.APIError{Method: "POST", Path: "/api/torrents/3/pause", StatusCode: 404, Code: "not-found"}}
	ref := &countingRefresher{}
	notes := &recorder{}
	d := New(api, ref, notes, nil)

	err := d.Dispatch(context.Background(), Control{Action: engine.ActionPause, JobID: 3})
	require.Error(t, err)

	var apiErr *engine.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Zero(t, ref.count())
	assert.Equal(t, notify.KindError, notes.last().Kind)
	assert.Equal(t, "Action failed", notes.last().Message)
}

func TestDispatch_RejectsUnknownAction(t *testing.T) {
	api := &fakeAPI{}
	d := New(api, nil, nil, nil)

	err := d.Dispatch(context.Background(), Control{Action: "delete", JobID: 1})
	require.Error(t, err)
	assert.Zero(t, api.controlCalls())
}

func TestDispatch_SameControlIsNotReentrant(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("boom")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{gate: make(chan struct{}), err: tc.err}
			d := New(api, nil, nil, nil)
			ctl := Control{Action: engine.ActionRemove, JobID: 9}

			done := make(chan error, 1)
			go func() { done <- d.Dispatch(context.Background(), ctl) }()

			require.Eventually(t, func() bool { return api.controlCalls() == 1 }, time.Second, 5*time.Millisecond)
			assert.True(t, d.Disabled(ctl))
			assert.ErrorIs(t, d.Dispatch(context.Background(), ctl), ErrControlBusy)
			assert.Equal(t, 1, api.controlCalls())

			close(api.gate)
			err := <-done
			if tc.err == nil {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			assert.False(t, d.Disabled(ctl))
		})
	}
}

func TestDispatch_DifferentControlsRunConcurrently(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{})}
	d := New(api, nil, nil, nil)

	var wg sync.WaitGroup
	for _, ctl := range []Control{
		{Action: engine.ActionPause, JobID: 1},
		{Action: engine.ActionRemove, JobID: 1},
		{Action: engine.ActionPause, JobID: 2},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Dispatch(context.Background(), ctl))
		}()
	}

	require.Eventually(t, func() bool { return api.controlCalls() == 3 }, time.Second, 5*time.Millisecond)
	close(api.gate)
	wg.Wait()
}

func TestSubmitAdd_RequiresMagnet(t *testing.T) {
	api := &fakeAPI{}
	notes := &recorder{}
	d := New(api, nil, notes, nil)

	_, err := d.SubmitAdd(context.Background(), AddForm{Magnet: "   ", Name: "x"})
	assert.ErrorIs(t, err, ErrMagnetRequired)
	assert.Empty(t, api.addCalls())
	assert.Equal(t, notify.KindError, notes.last().Kind)
	assert.Equal(t, "Provide a magnet URI", notes.last().Message)
}

func TestSubmitAdd_SendsNormalizedRequest(t *testing.T) {
	api := &fakeAPI{addID: 12}
	ref := &countingRefresher{}
	notes := &recorder{}
	d := New(api, ref, notes, nil)

	id, err := d.SubmitAdd(context.Background(), AddForm{Magnet: " magnet:?xt=urn:btih:abc ", Name: "  ", Size: "5"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	require.Len(t, api.addCalls(), 1)
	assert.Equal(t, engine.AddRequest{Magnet: "magnet:?xt=urn:btih:abc", Size: 5242880}, api.addCalls()[0])
	assert.Equal(t, 1, ref.count())
	assert.Equal(t, "Torrent added", notes.last().Message)
}

func TestSubmitAdd_FailureNotifies(t *testing.T) {
	api := &fakeAPI{err: errors.New("connection refused")}
	ref := &countingRefresher{}
	notes := &recorder{}
	d := New(api, ref, notes, nil)

	_, err := d.SubmitAdd(context.Background(), AddForm{Magnet: "magnet:?xt=urn:btih:abc"})
	require.Error(t, err)
	assert.Zero(t, ref.count())
	assert.Equal(t, 1, notes.count())
	assert.Equal(t, "Add torrent failed", notes.last().Message)
}

func TestParseSizeMiB(t *testing.T) {
	cases := map[string]int64{
		"":      0,
		"abc":   0,
		"0":     0,
		"-3":    0,
		"NaN":   0,
		"Inf":   0,
		"1":     1048576,
		"5":     5242880,
		" 2.5 ": 2621440,
		"0.001": 1049,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseSizeMiB(in), "input %q", in)
	}
}
