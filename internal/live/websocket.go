package live

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// defaultReadLimit fits a full snapshot of a busy engine; the library
// default of 32 KiB does not.
const defaultReadLimit = 8 << 20

// WebSocketDialer opens live connections with coder/websocket.
type WebSocketDialer struct {
	ReadLimit int64
	Header    http.Header
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: d.Header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	c.SetReadLimit(limit)
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close drops the connection without waiting for the close handshake; the
// channel is receive-only so there is nothing to flush.
func (w *wsConn) Close() error {
	return w.conn.CloseNow()
}
