package ui

import (
	"github.com/google/uuid"

	"github.com/five82/bitdeck/internal/dispatch"
	"github.com/five82/bitdeck/internal/live"
	"github.com/five82/bitdeck/internal/notify"
	"github.com/five82/bitdeck/internal/state"
)

// SnapshotMsg delivers a store replacement. One message per Replace.
type SnapshotMsg state.View

// ToastMsg delivers a notification.
type ToastMsg notify.Notification

// LiveStateMsg reports a live channel transition.
type LiveStateMsg live.State

type toastExpiredMsg uuid.UUID

type actionDoneMsg struct {
	control dispatch.Control
	err     error
}

type addDoneMsg struct {
	id  int64
	err error
}

type logLinesMsg struct {
	lines []string
	err   error
}
