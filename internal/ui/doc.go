// Package ui is the Bubble Tea front end.
//
// The model never reads the state store directly. The composition root
// subscribes to the store and forwards every replacement as a SnapshotMsg,
// so each accepted snapshot produces exactly one redraw. Notifications and
// live channel transitions arrive the same way (ToastMsg, LiveStateMsg).
//
// Rendering goes through a pure view model: BuildCard turns a torrent into
// labels, status, progress and the controls to offer, and is what the tests
// exercise. The model only adds layout and colour.
//
// Commands that hit the engine run as tea.Cmds through the Actions
// interface. A control is marked pending the moment it is pressed and is
// rendered disabled until its actionDoneMsg arrives.
//
// Screens: torrent cards (default), add form (a), name filter (/), client
// log (l) and a help overlay (?).
package ui
