package state

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/bitdeck/internal/engine"
)

func sampleSnapshot(ids ...int64) engine.Snapshot {
	snap := engine.Snapshot{Stats: engine.EngineStats{Port: 6881, TorrentCount: len(ids)}}
	for _, id := range ids {
		snap.Torrents = append(snap.Torrents, engine.Torrent{ID: id})
	}
	return snap
}

func TestStore_EmptySentinelBeforeFirstReplace(t *testing.T) {
	var s Store
	view := s.Current()
	if view.Loaded {
		t.Fatalf("Loaded = true before any Replace")
	}
	if view.Version != 0 || len(view.Snapshot.Torrents) != 0 {
		t.Fatalf("empty view = %#v, want zero value", view)
	}
}

func TestStore_ReplaceAndCurrentClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Replace(sampleSnapshot(1, 2), SourcePoll)

	view := s.Current()
	if !view.Loaded || view.Source != SourcePoll || view.Version != 1 {
		t.Fatalf("view = %#v, want loaded poll version 1", view)
	}
	if len(view.Snapshot.Torrents) != 2 || view.Snapshot.Torrents[0].ID != 1 {
		t.Fatalf("torrents = %#v, want 2 items", view.Snapshot.Torrents)
	}
	if view.UpdatedAt.Before(before) {
		t.Fatalf("UpdatedAt = %v, want >= %v", view.UpdatedAt, before)
	}

	view.Snapshot.Torrents[0].ID = 999
	if again := s.Current(); again.Snapshot.Torrents[0].ID != 1 {
		t.Fatalf("Current should clone torrents; got id %d want 1", again.Snapshot.Torrents[0].ID)
	}
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	var s Store
	s.Replace(sampleSnapshot(1, 2, 3), SourcePoll)
	s.Replace(sampleSnapshot(9), SourceLive)

	view := s.Current()
	if len(view.Snapshot.Torrents) != 1 || view.Snapshot.Torrents[0].ID != 9 {
		t.Fatalf("torrents = %#v, want only id 9", view.Snapshot.Torrents)
	}
	if view.Source != SourceLive || view.Version != 2 {
		t.Fatalf("view = source %q version %d, want live 2", view.Source, view.Version)
	}
}

func TestStore_SameValueNotifiesTwice(t *testing.T) {
	var s Store
	var got []View
	s.Subscribe(func(v View) { got = append(got, v) })

	snap := sampleSnapshot(7)
	s.Replace(snap, SourcePoll)
	s.Replace(snap, SourcePoll)

	if len(got) != 2 {
		t.Fatalf("observer called %d times, want 2", len(got))
	}
	if !reflect.DeepEqual(got[0].Snapshot, got[1].Snapshot) {
		t.Fatalf("snapshots differ: %#v vs %#v", got[0].Snapshot, got[1].Snapshot)
	}
	if got[1].Version != got[0].Version+1 {
		t.Fatalf("versions = %d, %d, want consecutive", got[0].Version, got[1].Version)
	}
}

func TestStore_ObserverSeesNewValueSynchronously(t *testing.T) {
	var s Store
	var seen View
	s.Subscribe(func(v View) {
		seen = v
		if cur := s.Current(); cur.Version != v.Version {
			t.Errorf("Current inside observer = version %d, want %d", cur.Version, v.Version)
		}
	})
	returned := s.Replace(sampleSnapshot(3), SourceLive)
	if seen.Version != returned.Version || !seen.Loaded {
		t.Fatalf("observer saw %#v, want version %d", seen, returned.Version)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	var s Store
	calls := 0
	unsubscribe := s.Subscribe(func(View) { calls++ })
	s.Replace(sampleSnapshot(), SourcePoll)
	unsubscribe()
	s.Replace(sampleSnapshot(), SourcePoll)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStore_RecordFailureKeepsSnapshot(t *testing.T) {
	var s Store
	notified := 0
	s.Subscribe(func(View) { notified++ })

	s.Replace(sampleSnapshot(1), SourcePoll)
	origErr := errors.New("boom")
	s.RecordFailure(origErr)
	s.RecordFailure(nil)

	view := s.Current()
	if len(view.Snapshot.Torrents) != 1 || view.Version != 1 {
		t.Fatalf("snapshot changed on failure: %#v", view)
	}
	if view.LastError == nil || view.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", view.LastError)
	}
	if reflect.ValueOf(view.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Current should clone error instance")
	}
	if notified != 1 {
		t.Fatalf("observers notified %d times, want 1 (failures do not notify)", notified)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Current().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	s.RecordFailure(errors.New("fail 1"))
	if s.Current().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}
	s.RecordFailure(errors.New("fail 2"))
	if view := s.Current(); view.ConsecutiveFailures != 2 || !view.IsOffline() {
		t.Fatalf("failures = %d offline = %v, want 2 true", view.ConsecutiveFailures, view.IsOffline())
	}

	s.Replace(sampleSnapshot(), SourceLive)
	if view := s.Current(); view.ConsecutiveFailures != 0 || view.LastError != nil {
		t.Fatalf("view = %#v, want failures reset after success", view)
	}
}

func TestStore_ConcurrentWritersNotifyInWriteOrder(t *testing.T) {
	var s Store
	var mu sync.Mutex
	var versions []uint64
	s.Subscribe(func(v View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := SourcePoll
			if i%2 == 0 {
				src = SourceLive
			}
			s.Replace(sampleSnapshot(int64(i)), src)
		}(i)
	}
	wg.Wait()

	if len(versions) != 50 {
		t.Fatalf("notifications = %d, want 50", len(versions))
	}
	for i, v := range versions {
		if v != uint64(i+1) {
			t.Fatalf("notification %d carried version %d, want %d", i, v, i+1)
		}
	}
}
