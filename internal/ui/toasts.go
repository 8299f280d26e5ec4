package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/five82/bitdeck/internal/notify"
)

const maxToasts = 4

type toast struct {
	id      uuid.UUID
	kind    notify.Kind
	message string
}

// pushToast shows a notification and schedules its removal. Each expiry
// carries the toast id, so it never removes a newer toast.
func (m Model) pushToast(msg ToastMsg) (tea.Model, tea.Cmd) {
	n := notify.Notification(msg)
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	m.toasts = append(m.toasts, toast{id: n.ID, kind: n.Kind, message: n.Message})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	id := n.ID
	return m, tea.Tick(m.toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg(id)
	})
}

func (m *Model) expireToast(id toastExpiredMsg) {
	kept := m.toasts[:0:0]
	for _, t := range m.toasts {
		if t.id != uuid.UUID(id) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		switch t.kind {
		case notify.KindSuccess:
			lines = append(lines, styles.SuccessText.Render("✓ "+t.message))
		case notify.KindError:
			lines = append(lines, styles.DangerText.Render("✗ "+t.message))
		default:
			lines = append(lines, styles.InfoText.Render("• "+t.message))
		}
	}
	return " " + strings.Join(lines, "\n ")
}
