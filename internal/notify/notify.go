// Package notify carries transient operator-facing messages (toasts) from the
// sync core to whatever surface is showing them.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Kind classifies a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a single transient message.
type Notification struct {
	ID      uuid.UUID
	Kind    Kind
	Message string
	At      time.Time
}

// New stamps a notification with a fresh id.
func New(kind Kind, message string) Notification {
	return Notification{ID: uuid.New(), Kind: kind, Message: message, At: time.Now()}
}

// Notifier accepts notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Info, Success and Error are shorthands used by the sync core.
func Info(n Notifier, message string)    { send(n, KindInfo, message) }
func Success(n Notifier, message string) { send(n, KindSuccess, message) }
func Error(n Notifier, message string)   { send(n, KindError, message) }

func send(n Notifier, kind Kind, message string) {
	if n == nil {
		return
	}
	n.Notify(New(kind, message))
}

// Hub logs every notification and fans it out to subscribers. Subscribers
// added after a notification was sent do not receive it.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]Func
	nextID int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]Func)}
}

// Notify implements Notifier.
func (h *Hub) Notify(n Notification) {
	event := log.Info()
	if n.Kind == KindError {
		event = log.Warn()
	}
	event.Str("kind", string(n.Kind)).Str("id", n.ID.String()).Msg(n.Message)

	h.mu.RLock()
	subs := make([]Func, 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn Func) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Writer prints notifications one per line, for headless commands.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a Writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Notify implements Notifier.
func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, "[%s] %s\n", n.Kind, n.Message)
}
