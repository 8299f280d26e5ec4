package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/five82/bitdeck/internal/dispatch"
	"github.com/five82/bitdeck/internal/live"
	"github.com/five82/bitdeck/internal/prefs"
	"github.com/five82/bitdeck/internal/state"
)

// DefaultToastTTL is how long a toast stays on screen.
const DefaultToastTTL = 2500 * time.Millisecond

// mode is the active screen.
type mode int

const (
	modeList mode = iota
	modeAdd
	modeFilter
	modeLogs
)

// Actions runs operator commands.
type Actions interface {
	Dispatch(ctx context.Context, c dispatch.Control) error
	SubmitAdd(ctx context.Context, form dispatch.AddForm) (int64, error)
	Disabled(c dispatch.Control) bool
}

// Refresher forces an immediate snapshot fetch.
type Refresher interface {
	FetchOnce(ctx context.Context) error
}

// Reconnector restarts the live channel.
type Reconnector interface {
	Connect()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Actions   Actions
	Refresher Refresher
	Live      Reconnector
	Initial   state.View
	EngineURL string
	ThemeName string
	PrefsPath string
	LogPath   string
	ToastTTL  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	actions   Actions
	refresher Refresher
	live      Reconnector
	engineURL string
	prefsPath string
	logPath   string
	toastTTL  time.Duration

	// UI state
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	theme    Theme
	mode     mode
	showHelp bool
	width    int
	height   int

	// Data state
	view      state.View
	liveState live.State

	// List state
	cursor     int
	selectedID int64
	pending    map[dispatch.Control]bool

	// Filter
	filterInput textinput.Model
	filter      string

	// Add form
	addInputs [3]textinput.Model // magnet, name, size
	addFocus  int
	adding    bool

	// Log view
	logViewport viewport.Model
	logErr      error

	toasts []toast
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	ttl := opts.ToastTTL
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}

	m := Model{
		ctx:         ctx,
		actions:     opts.Actions,
		refresher:   opts.Refresher,
		live:        opts.Live,
		engineURL:   opts.EngineURL,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		toastTTL:    ttl,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:       GetTheme(themeName),
		view:        opts.Initial,
		pending:     make(map[dispatch.Control]bool),
		filterInput: newInput("filter", "name"),
		logViewport: viewport.New(80, 20),
	}
	m.addInputs = [3]textinput.Model{
		newInput("magnet", "magnet:?xt=urn:btih:..."),
		newInput("name  ", "optional"),
		newInput("size  ", "optional, MiB"),
	}
	m.syncSelection()
	return m
}

// NewProgram builds the Bubble Tea program for opts.
func NewProgram(opts Options, extra ...tea.ProgramOption) *tea.Program {
	programOpts := append([]tea.ProgramOption{tea.WithAltScreen()}, extra...)
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	return tea.NewProgram(New(opts), programOpts...)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logViewport.Width = max(msg.Width-2, 10)
		m.logViewport.Height = max(msg.Height-6, 3)
		return m, nil

	case SnapshotMsg:
		m.view = state.View(msg)
		m.syncSelection()
		return m, nil

	case LiveStateMsg:
		m.liveState = live.State(msg)
		return m, nil

	case ToastMsg:
		return m.pushToast(msg)

	case toastExpiredMsg:
		m.expireToast(msg)
		return m, nil

	case actionDoneMsg:
		if !errors.Is(msg.err, dispatch.ErrControlBusy) {
			delete(m.pending, msg.control)
		}
		return m, nil

	case addDoneMsg:
		m.adding = false
		if msg.err == nil {
			m.resetAddForm()
			m.mode = modeList
		}
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString(m.renderHelp())
	case m.mode == modeAdd:
		b.WriteString(m.renderAddForm())
	case m.mode == modeLogs:
		b.WriteString(m.renderLogs())
	default:
		if m.mode == modeFilter || m.filter != "" {
			b.WriteString(m.renderFilterLine())
			b.WriteString("\n")
		}
		b.WriteString(m.renderCards())
	}

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleKey routes keyboard input by mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeAdd:
		return m.handleAddKey(msg)
	case modeFilter:
		return m.handleFilterKey(msg)
	case modeLogs:
		return m.handleLogsKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, saveThemeCmd(m.prefsPath, m.theme.Name)

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.cursor + 1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.visibleTorrents()) - 1)

	case key.Matches(msg, m.keys.Toggle):
		if card, ok := m.selectedCard(); ok {
			return m.runControl(card.Primary)
		}
	case key.Matches(msg, m.keys.Remove):
		if card, ok := m.selectedCard(); ok {
			return m.runControl(card.Remove)
		}

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		return m, m.focusAddField(0)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Reconnect):
		if m.live != nil {
			m.live.Connect()
		}

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filterInput.SetValue(m.filter)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Logs):
		m.mode = modeLogs
		return m, m.loadLogsCmd()

	case key.Matches(msg, m.keys.Escape):
		m.filter = ""
		m.syncSelection()
	}
	return m, nil
}

// runControl starts a dispatch unless the control is already in flight.
func (m Model) runControl(cv ControlView) (tea.Model, tea.Cmd) {
	if m.actions == nil || cv.Disabled || m.pending[cv.Control] {
		return m, nil
	}
	m.pending[cv.Control] = true
	ctx, actions, c := m.ctx, m.actions, cv.Control
	return m, func() tea.Msg {
		return actionDoneMsg{control: c, err: actions.Dispatch(ctx, c)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	if m.refresher == nil {
		return nil
	}
	ctx, refresher := m.ctx, m.refresher
	return func() tea.Msg {
		// Failures surface as toasts from the poller.
		_ = refresher.FetchOnce(ctx)
		return nil
	}
}

func saveThemeCmd(path, name string) tea.Cmd {
	return func() tea.Msg {
		if err := prefs.Save(path, prefs.Prefs{Theme: name}); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("save theme preference failed")
		}
		return nil
	}
}

// disabled reports whether c should render disabled.
func (m Model) disabled(c dispatch.Control) bool {
	if m.pending[c] {
		return true
	}
	return m.actions != nil && m.actions.Disabled(c)
}

func newInput(prompt, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt + " > "
	in.Placeholder = placeholder
	in.CharLimit = 4096
	return in
}
