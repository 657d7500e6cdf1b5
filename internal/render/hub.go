package render

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/formation"
)

const (
	writeWait = 2 * time.Second
	// sendBuffer frames may queue per client before newer frames are dropped.
	sendBuffer = 2
	// freeFrames bounds how many idle encode buffers the hub keeps.
	freeFrames = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type message struct {
	kind int
	data []byte
	buf  *frameBuf // nil for control messages
}

// frameBuf is an encode buffer shared by every client queued with the same
// frame. It returns to the hub once the last reference is released.
type frameBuf struct {
	data []byte
	refs atomic.Int32
}

type client struct {
	conn *websocket.Conn
	send chan message
}

// controlMessage is a JSON text message sent by either side.
type controlMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Hub broadcasts encoded frames to WebSocket clients. Render never blocks:
// a client that falls behind misses frames.
type Hub struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*client]struct{}
	viewport Viewport
	closed   bool
	wg       sync.WaitGroup
	dropped  atomic.Uint64
	sent     atomic.Uint64
	free     chan *frameBuf

	// OnResize is called when a client reports a new viewport.
	OnResize func(width, height int)
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		free:    make(chan *frameBuf, freeFrames),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan message, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	vp := h.viewport
	h.wg.Add(1)
	h.mu.Unlock()

	go h.writeLoop(c)

	if vp.Width > 0 {
		h.enqueueControl(c, controlMessage{Type: "resize", Width: vp.Width, Height: vp.Height})
	}

	h.readLoop(c)
	h.remove(c)
}

func (h *Hub) readLoop(c *client) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "resize" && h.OnResize != nil {
			h.OnResize(msg.Width, msg.Height)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(msg.kind, msg.data)
		h.release(msg.buf)
		if err != nil {
			return
		}
	}
}

func (h *Hub) acquire() *frameBuf {
	select {
	case b := <-h.free:
		return b
	default:
		return &frameBuf{}
	}
}

// release drops one reference to b and recycles it when none remain.
func (h *Hub) release(b *frameBuf) {
	if b == nil || b.refs.Add(-1) != 0 {
		return
	}
	b.data = b.data[:0]
	select {
	case h.free <- b:
	default:
	}
}

// remove unregisters c and stops its writer.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Render implements Surface.
func (h *Hub) Render(f *formation.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	buf := h.acquire()
	if n := EncodedSize(f); cap(buf.data) < n {
		buf.data = make([]byte, 0, n)
	}
	buf.data = EncodeFrame(buf.data[:0], f)

	// Render holds one reference until every client has been offered the frame.
	buf.refs.Store(1)
	for c := range h.clients {
		buf.refs.Add(1)
		select {
		case c.send <- message{kind: websocket.BinaryMessage, data: buf.data, buf: buf}:
			h.sent.Add(1)
		default:
			buf.refs.Add(-1)
			h.dropped.Add(1)
		}
	}
	h.release(buf)
}

// Resize implements Surface. Clients are told the new size.
func (h *Hub) Resize(width, height int) {
	h.mu.Lock()
	h.viewport = Viewport{Width: width, Height: height}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.enqueueControlLocked(c, controlMessage{Type: "resize", Width: width, Height: height})
	}
}

func (h *Hub) enqueueControl(c *client, msg controlMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueControlLocked(c, msg)
	}
}

func (h *Hub) enqueueControlLocked(c *client, msg controlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- message{kind: websocket.TextMessage, data: data}:
	default:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns how many frame messages were queued and dropped.
func (h *Hub) Stats() (sent, dropped uint64) {
	return h.sent.Load(), h.dropped.Load()
}

// Close disconnects every client and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
