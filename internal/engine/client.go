package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Action is a per-torrent control command understood by the engine.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionRemove Action = "remove"
)

// API defines the engine calls the sync client depends on. *Client
// implements it; tests substitute fakes.
type API interface {
	FetchSnapshot(ctx context.Context) (Snapshot, error)
	FetchSession(ctx context.Context) (EngineStats, error)
	AddTorrent(ctx context.Context, req AddRequest) (int64, error)
	Control(ctx context.Context, action Action, id int64) error
}

var _ API = (*Client)(nil)

// Client talks to the engine's HTTP API.
type Client struct {
	baseURL *url.URL
	http    *resty.Client
}

const (
	DefaultEngineURL = "http://127.0.0.1:32145"
	defaultUserAgent = "bitdeck/0.1"
	livePath         = "/ws"
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// NewClient builds a Client for the engine at engineURL (host:port or full URL).
func NewClient(engineURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(engineURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: resty.New().
			SetBaseURL(base.String()).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", defaultUserAgent).
			SetLogger(restyLogger{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized engine URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// LiveURL returns the push channel URL. The scheme mirrors the REST
// scheme: https engines are reached over wss.
func (c *Client) LiveURL() string {
	u := *c.baseURL
	if strings.EqualFold(u.Scheme, "https") {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = livePath
	return u.String()
}

// FetchSnapshot retrieves engine stats and every torrent.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/torrents", nil)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := DecodeSnapshot(body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// FetchSession retrieves engine stats without the torrent list.
func (c *Client) FetchSession(ctx context.Context) (EngineStats, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/session", nil)
	if err != nil {
		return EngineStats{}, err
	}
	var stats EngineStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return EngineStats{}, fmt.Errorf("decode response: %w", err)
	}
	return stats, nil
}

// AddTorrent creates a job and returns the engine-assigned id.
func (c *Client) AddTorrent(ctx context.Context, req AddRequest) (int64, error) {
	if strings.TrimSpace(req.Magnet) == "" {
		return 0, fmt.Errorf("magnet required")
	}
	body, err := c.do(ctx, http.MethodPost, "/api/torrents", req)
	if err != nil {
		return 0, err
	}
	var payload addResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	}
	return payload.ID, nil
}

// Control pauses, resumes or removes a torrent.
func (c *Client) Control(ctx context.Context, action Action, id int64) error {
	if id <= 0 {
		return fmt.Errorf("torrent id required")
	}
	path := fmt.Sprintf("/api/torrents/%d", id)
	switch action {
	case ActionPause, ActionResume:
		_, err := c.do(ctx, http.MethodPost, path+"/"+string(action), nil)
		return err
	case ActionRemove:
		_, err := c.do(ctx, http.MethodDelete, path, nil)
		return err
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(method, path, resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

func parseBaseURL(engineURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(engineURL)
	if trimmed == "" {
		trimmed = DefaultEngineURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse engine url %q: %w", engineURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse engine url %q: missing host", engineURL)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// restyLogger keeps resty's own diagnostics in the structured log instead
// of stderr, which the TUI owns.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	log.Error().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...any) {
	log.Warn().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...any) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}
