package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSnapshot marks payloads that are valid transport but not a snapshot.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// EngineStats mirrors the session-wide counters reported by the engine.
type EngineStats struct {
	Port         int     `json:"port"`
	TorrentCount int     `json:"torrent_count"`
	Active       int     `json:"active"`
	DownloadRate float64 `json:"download_rate"`
	UploadRate   float64 `json:"upload_rate"`
}

// Torrent describes one managed download job.
type Torrent struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Magnet       string  `json:"magnet"`
	Progress     float64 `json:"progress"`
	Size         int64   `json:"size"`
	Downloaded   int64   `json:"downloaded"`
	DownloadRate float64 `json:"download_rate"`
	UploadRate   float64 `json:"upload_rate"`
	Paused       bool    `json:"paused"`
	Complete     bool    `json:"complete"`
}

// Status returns the display status. Complete wins over Paused.
func (t Torrent) Status() string {
	switch {
	case t.Complete:
		return "Complete"
	case t.Paused:
		return "Paused"
	default:
		return "Downloading"
	}
}

// DisplayName falls back to the numeric id when the engine has no name yet.
func (t Torrent) DisplayName() string {
	if t.Name == "" {
		return fmt.Sprintf("Torrent #%d", t.ID)
	}
	return t.Name
}

// Snapshot is the full engine state at one instant. Torrent order is the
// engine's display order.
type Snapshot struct {
	Stats    EngineStats `json:"stats"`
	Torrents []Torrent   `json:"torrents"`
}

// Clone returns a copy that shares no backing storage with s.
func (s Snapshot) Clone() Snapshot {
	dup := Snapshot{Stats: s.Stats}
	if len(s.Torrents) > 0 {
		dup.Torrents = make([]Torrent, len(s.Torrents))
		copy(dup.Torrents, s.Torrents)
	}
	return dup
}

// AddRequest is the body of POST /api/torrents.
type AddRequest struct {
	Magnet string `json:"magnet"`
	Name   string `json:"name,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

type addResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// DecodeSnapshot parses a full snapshot as delivered by either the REST
// endpoint or the live channel. The payload must be an object carrying a
// stats object; a missing torrents list decodes as empty.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Snapshot{}, fmt.Errorf("%w: payload is not an object", ErrMalformedSnapshot)
	}
	var raw struct {
		Stats    *EngineStats `json:"stats"`
		Torrents []Torrent    `json:"torrents"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if raw.Stats == nil {
		return Snapshot{}, fmt.Errorf("%w: missing stats", ErrMalformedSnapshot)
	}
	if raw.Torrents == nil {
		raw.Torrents = []Torrent{}
	}
	return Snapshot{Stats: *raw.Stats, Torrents: raw.Torrents}, nil
}
