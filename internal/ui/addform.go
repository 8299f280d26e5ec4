package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bitdeck/internal/dispatch"
)

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.blurAddForm()
		m.mode = modeList
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		return m, m.focusAddField((m.addFocus + 1) % len(m.addInputs))

	case key.Matches(msg, m.keys.PrevField):
		return m, m.focusAddField((m.addFocus + len(m.addInputs) - 1) % len(m.addInputs))

	case key.Matches(msg, m.keys.Confirm):
		return m.submitAdd()
	}

	var cmd tea.Cmd
	m.addInputs[m.addFocus], cmd = m.addInputs[m.addFocus].Update(msg)
	return m, cmd
}

// submitAdd sends the form. Inputs are cleared only after the engine
// accepts the torrent.
func (m Model) submitAdd() (tea.Model, tea.Cmd) {
	if m.actions == nil || m.addDisabled() {
		return m, nil
	}
	m.adding = true
	form := m.addForm()
	ctx, actions := m.ctx, m.actions
	return m, func() tea.Msg {
		id, err := actions.SubmitAdd(ctx, form)
		return addDoneMsg{id: id, err: err}
	}
}

func (m Model) addForm() dispatch.AddForm {
	return dispatch.AddForm{
		Magnet: m.addInputs[0].Value(),
		Name:   m.addInputs[1].Value(),
		Size:   m.addInputs[2].Value(),
	}
}

func (m Model) addDisabled() bool {
	return m.adding || m.disabled(dispatch.Control{Action: dispatch.ActionAdd})
}

func (m *Model) focusAddField(idx int) tea.Cmd {
	m.addFocus = idx
	var cmd tea.Cmd
	for i := range m.addInputs {
		if i == idx {
			cmd = m.addInputs[i].Focus()
		} else {
			m.addInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) blurAddForm() {
	for i := range m.addInputs {
		m.addInputs[i].Blur()
	}
}

func (m *Model) resetAddForm() {
	for i := range m.addInputs {
		m.addInputs[i].Reset()
	}
	m.blurAddForm()
	m.addFocus = 0
}

func (m Model) renderAddForm() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Add torrent"))
	b.WriteString("\n\n")
	for _, in := range m.addInputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderButton(ControlView{Label: "Add", Disabled: m.addDisabled()}, styles))
	b.WriteString("  ")
	b.WriteString(styles.FaintText.Render("enter submit • tab next field • esc cancel"))
	return styles.Input.Width(m.cardWidth() - 2).Render(b.String())
}
