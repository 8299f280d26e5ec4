package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bitdeck/internal/engine"
)

const cardHeight = 7 // five content lines plus border

func (m Model) visibleTorrents() []engine.Torrent {
	return FilterTorrents(m.view.Snapshot.Torrents, m.filter)
}

func (m Model) cards() []Card {
	return BuildCards(m.visibleTorrents(), m.disabled)
}

func (m Model) selectedCard() (Card, bool) {
	torrents := m.visibleTorrents()
	if m.cursor < 0 || m.cursor >= len(torrents) {
		return Card{}, false
	}
	return BuildCard(torrents[m.cursor], m.disabled), true
}

func (m *Model) moveCursor(idx int) {
	torrents := m.visibleTorrents()
	if len(torrents) == 0 {
		m.cursor, m.selectedID = 0, 0
		return
	}
	idx = max(0, min(idx, len(torrents)-1))
	m.cursor = idx
	m.selectedID = torrents[idx].ID
}

// syncSelection keeps the selected torrent selected across snapshot and
// filter changes, falling back to the nearest row when it is gone.
func (m *Model) syncSelection() {
	for i, t := range m.visibleTorrents() {
		if t.ID == m.selectedID {
			m.cursor = i
			return
		}
	}
	m.moveCursor(m.cursor)
}

func (m Model) renderCards() string {
	styles := m.theme.Styles()
	cards := m.cards()
	if len(cards) == 0 {
		msg := "No torrents yet"
		if m.filter != "" && len(m.view.Snapshot.Torrents) > 0 {
			msg = "No torrents match " + m.filter
		}
		return styles.MutedText.Padding(1, 2).Render(msg)
	}

	start, end := m.cardWindow(len(cards))
	width := m.cardWidth()
	rendered := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rendered = append(rendered, m.renderCard(cards[i], i == m.cursor, width, styles))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

// cardWindow returns the slice of cards that fits the terminal and keeps the
// cursor visible.
func (m Model) cardWindow(total int) (int, int) {
	perPage := total
	if m.height > 0 {
		perPage = max(1, (m.height-4)/cardHeight)
	}
	if perPage >= total {
		return 0, total
	}
	start := max(0, m.cursor-perPage+1)
	return start, min(total, start+perPage)
}

func (m Model) cardWidth() int {
	if m.width <= 0 {
		return 72
	}
	return max(m.width-2, 30)
}

func (m Model) renderCard(card Card, selected bool, width int, styles Styles) string {
	inner := width - 4 // border and padding

	status := styles.StatusStyle(card.StatusClass).Render(card.Status)
	title := styles.Text.Bold(true).Render(truncate(card.Title, inner-lipgloss.Width(status)-1))
	gap := max(1, inner-lipgloss.Width(title)-lipgloss.Width(status))
	titleLine := title + strings.Repeat(" ", gap) + status

	meta := styles.MutedText.Render(card.Meta)

	label := styles.Text.Render(card.ProgressLabel)
	barWidth := max(inner-lipgloss.Width(label)-1, 5)
	progressLine := renderProgressBar(card.Fraction, barWidth, styles) + " " + label

	rates := styles.InfoText.Render(card.Rates)
	downloaded := styles.MutedText.Render(card.Downloaded)
	gap = max(2, inner-lipgloss.Width(downloaded)-lipgloss.Width(rates))
	transferLine := downloaded + strings.Repeat(" ", gap) + rates

	buttons := make([]string, 0, 2)
	for _, cv := range card.Controls() {
		buttons = append(buttons, renderButton(cv, styles))
	}
	controlLine := strings.Join(buttons, " ")

	box := styles.Card
	if selected {
		box = styles.CardSelected
	}
	return box.Width(width - 2).Render(strings.Join([]string{titleLine, meta, progressLine, transferLine, controlLine}, "\n"))
}

func renderButton(cv ControlView, styles Styles) string {
	if cv.Disabled {
		return styles.ButtonOff.Render(cv.Label + "…")
	}
	return styles.Button.Render(cv.Label)
}

// renderProgressBar renders a text-based progress bar without percentage text.
func renderProgressBar(fraction float64, width int, styles Styles) string {
	filled := min(int(float64(width)*fraction+0.5), width)
	return styles.AccentText.Render(strings.Repeat("█", filled)) +
		styles.FaintText.Render(strings.Repeat("░", width-filled))
}

func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
