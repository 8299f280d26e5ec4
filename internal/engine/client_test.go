package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:32145" {
		t.Fatalf("default url = %q, want %q", u.String(), DefaultEngineURL)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL without host returned nil error")
	}
}

func TestClient_LiveURLMirrorsScheme(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:9000":          "ws://127.0.0.1:9000/ws",
		"http://engine.lan:80":    "ws://engine.lan:80/ws",
		"https://engine.example":  "wss://engine.example/ws",
		"HTTPS://engine.example/": "wss://engine.example/ws",
	}
	for in, want := range cases {
		c, err := NewClient(in)
		if err != nil {
			t.Fatalf("NewClient(%q) returned error: %v", in, err)
		}
		if got := c.LiveURL(); got != want {
			t.Errorf("LiveURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_EndpointsAndMethods(t *testing.T) {
	t.Parallel()

	type call struct {
		method    string
		path      string
		body      string
		userAgent string
	}
	calls := make(chan call, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls <- call{method: r.Method, path: r.URL.Path, body: string(body), userAgent: r.Header.Get("User-Agent")}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/torrents":
			_ = json.NewEncoder(w).Encode(Snapshot{
				Stats:    EngineStats{Port: 6881, TorrentCount: 1},
				Torrents: []Torrent{{ID: 7, Name: "debian.iso", Progress: 0.5}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/session":
			_ = json.NewEncoder(w).Encode(EngineStats{Port: 6881, Active: 3})
		case r.Method == http.MethodPost && r.URL.Path == "/api/torrents":
			_, _ = w.Write([]byte(`{ "status": "ok", "id": 42 }`))
		default:
			_, _ = w.Write([]byte(`{ "status": "ok" }`))
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	snap, err := c.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot returned error: %v", err)
	}
	if snap.Stats.Port != 6881 || len(snap.Torrents) != 1 || snap.Torrents[0].ID != 7 {
		t.Fatalf("FetchSnapshot = %#v, want port 6881 and torrent 7", snap)
	}
	if first := <-calls; !strings.HasPrefix(first.userAgent, "bitdeck/") {
		t.Fatalf("User-Agent = %q, want bitdeck/*", first.userAgent)
	}

	stats, err := c.FetchSession(ctx)
	if err != nil {
		t.Fatalf("FetchSession returned error: %v", err)
	}
	if stats.Active != 3 {
		t.Fatalf("FetchSession active = %d, want 3", stats.Active)
	}
	<-calls

	id, err := c.AddTorrent(ctx, AddRequest{Magnet: "magnet:?xt=urn:btih:abc", Size: 5 * 1024 * 1024})
	if err != nil {
		t.Fatalf("AddTorrent returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("AddTorrent id = %d, want 42", id)
	}
	add := <-calls
	var sent map[string]any
	if err := json.Unmarshal([]byte(add.body), &sent); err != nil {
		t.Fatalf("add body %q is not json: %v", add.body, err)
	}
	if sent["magnet"] != "magnet:?xt=urn:btih:abc" || sent["size"] != float64(5*1024*1024) {
		t.Fatalf("add body = %v, want magnet and size", sent)
	}
	if _, ok := sent["name"]; ok {
		t.Fatalf("add body = %v, want name omitted", sent)
	}

	want := []call{
		{method: http.MethodPost, path: "/api/torrents/7/pause"},
		{method: http.MethodPost, path: "/api/torrents/7/resume"},
		{method: http.MethodDelete, path: "/api/torrents/7"},
	}
	for i, action := range []Action{ActionPause, ActionResume, ActionRemove} {
		if err := c.Control(ctx, action, 7); err != nil {
			t.Fatalf("Control(%s) returned error: %v", action, err)
		}
		got := <-calls
		if got.method != want[i].method || got.path != want[i].path {
			t.Fatalf("Control(%s) sent %s %s, want %s %s", action, got.method, got.path, want[i].method, want[i].path)
		}
	}
}

func TestClient_ControlRejectsBadInput(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.Control(context.Background(), ActionPause, 0); err == nil {
		t.Fatalf("Control with id 0 returned nil error")
	}
	if err := c.Control(context.Background(), Action("explode"), 1); err == nil {
		t.Fatalf("Control with unknown action returned nil error")
	}
	if _, err := c.AddTorrent(context.Background(), AddRequest{Magnet: "  "}); err == nil {
		t.Fatalf("AddTorrent with blank magnet returned nil error")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/torrents":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/torrents/9":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{ "error": "not-found" }`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchSnapshot(context.Background())
	if err == nil || !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("FetchSnapshot error = %v, want malformed snapshot", err)
	}

	err = c.Control(context.Background(), ActionRemove, 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Control error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "not-found" {
		t.Fatalf("APIError = %#v, want 404 not-found", apiErr)
	}

	_, err = c.FetchSession(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchSession error = %v, want status 500 error", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchSnapshot(context.Background())
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("FetchSnapshot error = %v, want execute request error", err)
	}
}
