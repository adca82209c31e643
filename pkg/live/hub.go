package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/tracking"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 4
)

// BoardView is the part of *tracking.View the hub drives
type BoardView interface {
	Acquire(ctx context.Context)
	Release()
	Render(now time.Time) tracking.Board
	OnChange(listener func(tracking.Board)) func()
}

// Hub pushes the tracking board to websocket clients. The hub holds a lease on the view
// exactly while at least one client is connected.
type Hub struct {
	view      BoardView
	ctx       context.Context
	authorize Authorizer
	upgrader  websocket.Upgrader

	// serialises activation and deactivation, never held by broadcast
	lifecycle     sync.Mutex
	stopListening func()

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	group string
	send  chan []byte
}

// NewHub creates a hub for view. ctx bounds the lifetime of any activation, it should be
// the server context rather than a request one. Every socket request goes through authorize
// first, a nil authorize refuses them all.
func NewHub(ctx context.Context, view BoardView, authorize Authorizer, allowedOrigins []string) *Hub {
	return &Hub{
		view:      view,
		ctx:       ctx,
		authorize: authorize,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		clients: map[*client]struct{}{},
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authorize == nil {
		http.Error(w, "live tracking is disabled", http.StatusUnauthorized)
		return
	}
	if err := h.authorize(r); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, session.ErrForbidden) {
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		conn:  conn,
		group: tracking.ParseGroup(r.URL.Query().Get("groups")),
		send:  make(chan []byte, sendBufferSize),
	}

	go c.writePump()
	h.add(c)

	c.readPump()
	h.remove(c)
}

func (h *Hub) add(c *client) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	first := len(h.clients) == 0
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("remote", c.conn.RemoteAddr().String()).Bool("first", first).Msg("Live client connected")

	if first {
		h.stopListening = h.view.OnChange(h.broadcast)
		h.view.Acquire(h.ctx)
	}

	// send the current board straight away so the client does not wait for the next change
	if data, err := encodeBoard(h.view.Render(time.Now()), c.group); err == nil {
		c.queue(data)
	} else {
		log.Error().Err(err).Msg("Failed to encode tracking board")
	}
}

func (h *Hub) remove(c *client) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	last := len(h.clients) == 0
	h.mu.Unlock()

	log.Debug().Str("remote", c.conn.RemoteAddr().String()).Bool("last", last).Msg("Live client disconnected")

	if last {
		h.stopListening()
		h.stopListening = nil
		h.view.Release()
	}
}

func (h *Hub) broadcast(board tracking.Board) {
	encoded := map[string][]byte{}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		data, ok := encoded[c.group]
		if !ok {
			var err error
			data, err = encodeBoard(board, c.group)
			if err != nil {
				log.Error().Err(err).Msg("Failed to encode tracking board")
				return
			}
			encoded[c.group] = data
		}

		c.queue(data)
	}
}

func encodeBoard(board tracking.Board, group string) ([]byte, error) {
	reduced, err := tracking.Reduce(board, group)
	if err != nil {
		return nil, err
	}

	return json.Marshal(reduced)
}

// queue never blocks, a client that is behind loses the oldest board
func (c *client) queue(data []byte) {
	for {
		select {
		case c.send <- data:
			return
		default:
		}

		select {
		case <-c.send:
		default:
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("Live client write failed")
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
