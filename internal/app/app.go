package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/bitdeck/internal/config"
	"github.com/five82/bitdeck/internal/live"
	"github.com/five82/bitdeck/internal/notify"
	"github.com/five82/bitdeck/internal/prefs"
	"github.com/five82/bitdeck/internal/state"
	"github.com/five82/bitdeck/internal/ui"
)

// Options configure the interactive client.
type Options struct {
	Config    config.Config
	PrefsPath string // empty uses ~/.config/bitdeck/prefs.toml
}

// Run boots the TUI and the sync core until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	sess, err := NewSession(opts.Config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	userPrefs := prefs.Load(opts.PrefsPath)
	program := ui.NewProgram(ui.Options{
		Context:   gctx,
		Actions:   sess.Dispatcher,
		Refresher: sess.Poller,
		Live:      sess.Live,
		Initial:   sess.Store.Current(),
		EngineURL: sess.Client.BaseURL(),
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		LogPath:   opts.Config.LogFile,
	})

	// One message per replacement; no coalescing.
	unsubscribe := sess.Store.Subscribe(func(v state.View) {
		program.Send(ui.SnapshotMsg(v))
	})
	defer unsubscribe()
	unsubscribeToasts := sess.Hub.Subscribe(func(n notify.Notification) {
		program.Send(ui.ToastMsg(n))
	})
	defer unsubscribeToasts()
	sess.OnLiveState(func(st live.State) {
		program.Send(ui.LiveStateMsg(st))
	})

	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	})
	g.Go(func() error { return sess.Run(gctx) })
	return g.Wait()
}
