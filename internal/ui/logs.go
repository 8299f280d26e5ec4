package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bitdeck/internal/logtail"
)

const logFetchLimit = 400

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs):
		m.mode = modeList
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadLogsCmd()
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m Model) loadLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logFetchLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logErr = msg.err
	if msg.err != nil {
		return
	}
	m.logViewport.SetContent(strings.Join(logtail.FormatLines(msg.lines), "\n"))
	m.logViewport.GotoBottom()
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.Text.Bold(true).Render("Client log")
	if m.logPath != "" {
		title += "  " + styles.MutedText.Render(m.logPath)
	}
	switch {
	case m.logErr != nil:
		return title + "\n" + styles.DangerText.Render(m.logErr.Error())
	case m.logPath == "":
		return title + "\n" + styles.MutedText.Render("Logging to file is disabled")
	}
	return title + "\n" + m.logViewport.View()
}
