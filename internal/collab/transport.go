package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/gosuda/lanes/internal/realtime"
)

const (
	dialBackoffMin = time.Second
	dialBackoffMax = 30 * time.Second
	sendTimeout    = 10 * time.Second
)

// WSTransport is the production Transport: a coder/websocket connection to
// the hub's /ws endpoint. Dial retries with exponential backoff until it
// connects or the context is cancelled.
type WSTransport struct {
	url    string
	header http.Header

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSTransport creates a transport dialing the given websocket URL. The
// header typically carries the Authorization bearer token.
func NewWSTransport(url string, header http.Header) *WSTransport {
	return &WSTransport{url: url, header: header}
}

func (t *WSTransport) Dial(ctx context.Context) error {
	backoff := dialBackoffMin

	for {
		conn, _, err := websocket.Dial(ctx, t.url, &websocket.DialOptions{HTTPHeader: t.header})
		if err == nil {
			t.mu.Lock()
			t.conn = conn
			t.mu.Unlock()
			return nil
		}

		if ctx.Err() != nil {
			return fmt.Errorf("collab.WSTransport.Dial: %w", ctx.Err())
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("collab.WSTransport.Dial: %w", ctx.Err())
		}

		backoff *= 2
		if backoff > dialBackoffMax {
			backoff = dialBackoffMax
		}
	}
}

func (t *WSTransport) Send(env *realtime.Envelope) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("collab.WSTransport.Send: not connected")
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("collab.WSTransport.Send: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		return fmt.Errorf("collab.WSTransport.Send: %w", err)
	}
	return nil
}

func (t *WSTransport) Receive(ctx context.Context) (*realtime.Envelope, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("collab.WSTransport.Receive: not connected")
	}

	_, raw, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("collab.WSTransport.Receive: %w", err)
	}

	var env realtime.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("collab.WSTransport.Receive: decode: %w", err)
	}
	return &env, nil
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, "session closed"); err != nil {
		return fmt.Errorf("collab.WSTransport.Close: %w", err)
	}
	return nil
}
