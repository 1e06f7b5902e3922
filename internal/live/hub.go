package live

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"docassist-web/internal/shared/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 16
)

// Message is what subscribers of a topic receive.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	topic string
	conn  *websocket.Conn
	send  chan Message
}

type publication struct {
	topic string
	msg   Message
}

type countQuery struct {
	topic string
	reply chan int
}

// Hub fans messages out to websocket clients grouped by topic. All
// bookkeeping happens on the run goroutine.
type Hub struct {
	upgrader websocket.Upgrader

	topics     map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	publish    chan publication
	counts     chan countQuery

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub starts a hub that lives until ctx is done or Stop is called.
func NewHub(ctx context.Context, checkOrigin func(*http.Request) bool) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		topics:     make(map[string]map[*client]struct{}),
		register:   make(chan *client, 10),
		unregister: make(chan *client, 10),
		publish:    make(chan publication, 100),
		counts:     make(chan countQuery, 10),
		ctx:        hubCtx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer func() {
		for _, clients := range h.topics {
			for c := range clients {
				close(c.send)
			}
		}
	}()

	for {
		select {
		case c := <-h.register:
			clients, ok := h.topics[c.topic]
			if !ok {
				clients = make(map[*client]struct{})
				h.topics[c.topic] = clients
			}
			clients[c] = struct{}{}

		case c := <-h.unregister:
			h.drop(c)

		case p := <-h.publish:
			for c := range h.topics[p.topic] {
				select {
				case c.send <- p.msg:
				default:
					// Slow reader; it reconnects and reads the current state.
					h.drop(c)
				}
			}

		case q := <-h.counts:
			q.reply <- len(h.topics[q.topic])

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	clients := h.topics[c.topic]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
}

// Publish queues msg for every client subscribed to topic.
func (h *Hub) Publish(topic, kind string, data any) {
	select {
	case h.publish <- publication{topic: topic, msg: Message{Type: kind, Data: data}}:
	case <-h.ctx.Done():
	}
}

// Count returns the number of clients subscribed to topic.
func (h *Hub) Count(topic string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countQuery{topic: topic, reply: reply}:
		return <-reply
	case <-h.ctx.Done():
		return 0
	}
}

// Stop disconnects every client.
func (h *Hub) Stop() {
	h.cancel()
}

// Serve upgrades the request and subscribes the connection to topic. The
// initial message, when not nil, is written before any publication. Serve
// blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string, initial *Message) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{topic: topic, conn: conn, send: make(chan Message, sendBuffer)}
	if initial != nil {
		c.send <- *initial
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return h.ctx.Err()
	}
	telemetry.Info("live.connected", map[string]any{"topic": topic, "remote_addr": r.RemoteAddr})

	go h.writePump(c)
	h.readPump(c)

	telemetry.Info("live.disconnected", map[string]any{"topic": topic, "remote_addr": r.RemoteAddr})
	return nil
}

// readPump discards client frames; it only exists to notice disconnects and
// to answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				telemetry.Warn("live.read_failed", map[string]any{"topic": c.topic, "error": err.Error()})
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
