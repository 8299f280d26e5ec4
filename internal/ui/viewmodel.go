package ui

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/five82/bitdeck/internal/dispatch"
	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/format"
)

const (
	statusDownloading = "downloading"
	statusPaused      = "paused"
	statusComplete    = "complete"
)

// ControlView is one button on a card.
type ControlView struct {
	Label    string
	Control  dispatch.Control
	Disabled bool
}

// Card is the display model of one torrent. It holds no styling.
type Card struct {
	ID            int64
	Title         string
	Meta          string
	Status        string
	StatusClass   string
	ProgressLabel string
	Fraction      float64
	Downloaded    string
	Rates         string
	Primary       ControlView
	Remove        ControlView
}

// Controls returns the card's buttons in display order.
func (c Card) Controls() []ControlView {
	return []ControlView{c.Primary, c.Remove}
}

// BuildCard maps a torrent to its card. disabled reports in-flight controls
// and may be nil.
func BuildCard(t engine.Torrent, disabled func(dispatch.Control) bool) Card {
	if disabled == nil {
		disabled = func(dispatch.Control) bool { return false }
	}
	control := func(label string, action engine.Action) ControlView {
		c := dispatch.Control{Action: action, JobID: t.ID}
		return ControlView{Label: label, Control: c, Disabled: disabled(c)}
	}

	card := Card{
		ID:            t.ID,
		Title:         t.DisplayName(),
		Meta:          fmt.Sprintf("ID %d • %s", t.ID, format.Size(t.Size, "Unknown size")),
		Status:        t.Status(),
		StatusClass:   statusClass(t),
		ProgressLabel: format.Progress(t.Progress),
		Fraction:      format.Fraction(t.Progress),
		Downloaded:    fmt.Sprintf("Downloaded %s / %s", format.Bytes(float64(t.Downloaded)), format.Size(t.Size, "unknown")),
		Rates:         fmt.Sprintf("↓ %s ↑ %s", format.Rate(t.DownloadRate), format.Rate(t.UploadRate)),
		Remove:        control("Remove", engine.ActionRemove),
	}

	// A finished, running torrent offers Restart in place of the toggle.
	switch {
	case t.Paused:
		card.Primary = control("Resume", engine.ActionResume)
	case !t.Complete:
		card.Primary = control("Pause", engine.ActionPause)
	default:
		card.Primary = control("Restart", engine.ActionResume)
	}
	return card
}

func statusClass(t engine.Torrent) string {
	switch {
	case t.Complete:
		return statusComplete
	case t.Paused:
		return statusPaused
	default:
		return statusDownloading
	}
}

// BuildCards maps every torrent, keeping engine order.
func BuildCards(torrents []engine.Torrent, disabled func(dispatch.Control) bool) []Card {
	cards := make([]Card, 0, len(torrents))
	for _, t := range torrents {
		cards = append(cards, BuildCard(t, disabled))
	}
	return cards
}

// FilterTorrents keeps torrents whose display name fuzzy-matches query,
// case-insensitively. Order is preserved; a blank query keeps everything.
func FilterTorrents(torrents []engine.Torrent, query string) []engine.Torrent {
	query = strings.TrimSpace(query)
	if query == "" {
		return torrents
	}
	out := make([]engine.Torrent, 0, len(torrents))
	for _, t := range torrents {
		if fuzzy.MatchFold(query, t.DisplayName()) {
			out = append(out, t)
		}
	}
	return out
}

// HeaderStats is the display model of the engine stats bar.
type HeaderStats struct {
	Port     string
	Torrents string
	Active   string
	Down     string
	Up       string
}

// BuildHeaderStats formats engine stats. Before the first load every field
// shows a placeholder.
func BuildHeaderStats(stats engine.EngineStats, loaded bool) HeaderStats {
	if !loaded {
		return HeaderStats{Port: "-", Torrents: "-", Active: "-", Down: "-", Up: "-"}
	}
	return HeaderStats{
		Port:     fmt.Sprintf("%d", stats.Port),
		Torrents: fmt.Sprintf("%d", stats.TorrentCount),
		Active:   fmt.Sprintf("%d", stats.Active),
		Down:     format.Rate(stats.DownloadRate),
		Up:       format.Rate(stats.UploadRate),
	}
}
