package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleFilterKey edits the name filter; the list narrows as you type.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.filterInput.Blur()
		m.mode = modeList
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.filterInput.Blur()
		m.filterInput.Reset()
		m.filter = ""
		m.mode = modeList
		m.syncSelection()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filter = m.filterInput.Value()
	m.syncSelection()
	return m, cmd
}

func (m Model) renderFilterLine() string {
	styles := m.theme.Styles()
	if m.mode == modeFilter {
		return " " + m.filterInput.View()
	}
	return " " + styles.MutedText.Render("filter: ") + styles.AccentText.Render(m.filter) +
		styles.FaintText.Render("  (esc to clear)")
}
