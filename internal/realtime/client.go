package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 256
)

// Client is one websocket connection attached to the hub. Outbound events
// flow through a buffered send queue so a slow reader cannot block the hub;
// the queue overflowing drops events (at-most-once delivery).
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.New(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
}

// queue enqueues a serialized envelope without blocking. Returns false if
// the event was dropped because the queue is full.
func (c *Client) queue(env *Envelope) bool {
	raw, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("realtime: envelope marshal")
		return false
	}

	select {
	case c.send <- raw:
		return true
	default:
		log.Warn().Str("conn", c.id.String()).Str("event", env.Event).Msg("realtime: send queue full, event dropped")
		return false
	}
}

// sendEvent marshals a payload and queues it for this connection only.
func (c *Client) sendEvent(event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("realtime: encode")
		return
	}
	c.queue(env)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// readPump decodes inbound envelopes and forwards them to the hub. Exits
// on any read error, which triggers deregistration.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.close()
	}()

	for {
		_, raw, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				log.Debug().Err(err).Str("conn", c.id.String()).Msg("realtime: read")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendEvent(EventError, ErrorEvent{Message: "invalid message format"})
			continue
		}

		select {
		case c.hub.events <- inbound{client: c, env: env}:
		case <-ctx.Done():
			return
		}
	}
}

// writePump drains the send queue onto the wire, preserving the hub's
// emission order for this connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case raw := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, raw)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("conn", c.id.String()).Msg("realtime: write")
				c.close()
				return
			}
		case <-c.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// it to the hub until the connection drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("realtime: websocket accept")
		return
	}
	defer conn.CloseNow()

	c := newClient(h, conn)
	h.register <- c

	ctx := r.Context()
	go c.writePump(ctx)
	c.readPump(ctx)

	_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
}
