package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bitdeck/internal/live"
)

// renderHeader renders the stats bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	stats := BuildHeaderStats(m.view.Snapshot.Stats, m.view.Loaded)

	field := func(label, value string) string {
		return styles.MutedText.Render(label+":") + " " + styles.Text.Render(value)
	}
	parts := []string{
		styles.Logo.Render("bitdeck"),
		m.renderLiveIndicator(styles),
		field("Port", stats.Port),
		field("Torrents", stats.Torrents),
		field("Active", stats.Active),
		styles.SuccessText.Render("↓") + " " + styles.Text.Render(stats.Down),
		styles.AccentText.Render("↑") + " " + styles.Text.Render(stats.Up),
	}
	if m.view.IsOffline() {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("OFFLINE (%d failed polls)", m.view.ConsecutiveFailures)))
	}

	return styles.Header.Width(max(m.width, lipgloss.Width(strings.Join(parts, "  "))+2)).
		Render(strings.Join(parts, "  "))
}

func (m Model) renderLiveIndicator(styles Styles) string {
	switch m.liveState {
	case live.Open:
		return styles.SuccessText.Render("● live")
	case live.Connecting:
		return styles.WarningText.Render(m.spinner.View() + " connecting")
	case live.ReconnectPending:
		return styles.WarningText.Render(m.spinner.View() + " reconnecting")
	default:
		return styles.FaintText.Render("○ polling")
	}
}

// renderFooter renders the key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Engine " + m.engineURL + "  •  Theme " + m.theme.Name))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Press any key to close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
