package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/bitdeck/internal/engine"
)

// Source identifies which channel delivered a snapshot.
type Source string

const (
	SourceNone Source = ""
	SourcePoll Source = "poll"
	SourceLive Source = "live"
)

// View is what observers and readers receive: the latest snapshot plus
// bookkeeping about how and when it arrived.
type View struct {
	Snapshot            engine.Snapshot
	Loaded              bool // false until the first accepted snapshot
	Version             uint64
	Source              Source
	UpdatedAt           time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when polling has failed several times in a row.
func (v View) IsOffline() bool {
	return v.ConsecutiveFailures >= 2
}

// Observer is called synchronously after every Replace.
type Observer func(View)

// Store holds the single current snapshot. Writes are last-write-wins with
// no merge and no rejection path.
type Store struct {
	// notifyMu serializes replace-then-notify so observers see writes in
	// order. Readers never take it.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	view      View
	observers map[int]Observer
	nextID    int
}

// Replace overwrites the snapshot and notifies every observer exactly once.
// Observers must not call Replace.
func (s *Store) Replace(snap engine.Snapshot, source Source) View {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.view = View{
		Snapshot:  snap.Clone(),
		Loaded:    true,
		Version:   s.view.Version + 1,
		Source:    source,
		UpdatedAt: time.Now(),
	}
	view := s.copyLocked()
	observers := make([]Observer, 0, len(s.observers))
	for _, id := range s.observerIDsLocked() {
		observers = append(observers, s.observers[id])
	}
	s.mu.Unlock()

	for _, obs := range observers {
		obs(view)
	}
	return view
}

// RecordFailure notes a failed poll. The snapshot is left untouched and
// observers are not notified.
func (s *Store) RecordFailure(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.LastError = err
	s.view.ConsecutiveFailures++
}

// Current returns a copy of the latest view. Before the first Replace the
// returned view has Loaded == false.
func (s *Store) Current() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]Observer)
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) copyLocked() View {
	view := s.view
	view.Snapshot = s.view.Snapshot.Clone()
	if s.view.LastError != nil {
		view.LastError = fmt.Errorf("%w", s.view.LastError)
	}
	return view
}

// observerIDsLocked returns ids in registration order.
func (s *Store) observerIDsLocked() []int {
	ids := make([]int, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if _, ok := s.observers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
