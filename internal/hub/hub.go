package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
)

const (
	defaultBatchInterval = 100 * time.Millisecond
	recentActivityLimit  = 50
)

// Hub fans capability activity out to websocket clients. New clients get a
// snapshot of recent activity, then live events filtered by their site
// subscription.
type Hub struct {
	clients      map[string]*Client
	register     chan *clientRegistration
	unregister   chan *Client
	broadcast    chan hubBroadcast
	token        string
	mu           sync.RWMutex
	recent       []ActivityMessage
	recentMu     sync.RWMutex
	batcher      *Batcher
	batchEnabled bool
	ctxWrap      *ctxWrapper
	running      atomic.Bool
}

type ctxWrapper struct {
	ctx context.Context
}

type clientRegistration struct {
	client   *Client
	snapshot []byte
}

func New(token string) *Hub {
	h := &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan *clientRegistration, 16),
		unregister:   make(chan *Client, 16),
		broadcast:    make(chan hubBroadcast, 256),
		token:        token,
		batchEnabled: true,
		ctxWrap:      &ctxWrapper{ctx: context.Background()},
	}
	h.batcher = NewBatcher(defaultBatchInterval, func(siteURL string, msg BatchMessage) {
		h.sendBroadcast(msg, siteURL)
	})
	return h
}

func (h *Hub) getContext() context.Context {
	if h.ctxWrap != nil {
		return h.ctxWrap.ctx
	}
	return context.Background()
}

func (h *Hub) Run(ctx context.Context) {
	h.ctxWrap = &ctxWrapper{ctx: ctx}
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.batcher.FlushAll()
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return

		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.client.id] = reg.client
			h.mu.Unlock()
			if reg.snapshot != nil {
				select {
				case reg.client.send <- reg.snapshot:
				default:
				}
			}
			go reg.client.writePump(h.getContext())
			go reg.client.readPump(h.getContext())
			slog.Debug("feed client connected", "client", reg.client.id, "total", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Debug("feed client disconnected", "client", client.id, "total", h.ClientCount())

		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) broadcastToClients(msg hubBroadcast) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.wantsSite(msg.siteURL) {
			continue
		}
		select {
		case c.send <- msg.data:
		default:
			slog.Debug("feed client send buffer full, dropping message", "client", c.id)
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	client := newClient(conn, h)

	h.recentMu.RLock()
	recent := append([]ActivityMessage(nil), h.recent...)
	h.recentMu.RUnlock()

	snapshot, _ := json.Marshal(SnapshotMessage{Type: "activity_snapshot", List: recent})

	select {
	case h.register <- &clientRegistration{client: client, snapshot: snapshot}:
	default:
		slog.Warn("hub not accepting connections")
		conn.Close(websocket.StatusTryAgainLater, "server busy")
	}
}

// BroadcastActivity pushes one invocation into the feed. With batching on,
// events for the same site are coalesced for a short interval.
func (h *Hub) BroadcastActivity(msg ActivityMessage) {
	if msg.Type == "" {
		msg.Type = "tool_activity"
	}
	h.remember(msg)
	if h.batchEnabled && h.batcher != nil {
		h.batcher.Add(msg)
		return
	}
	h.sendBroadcast(msg, msg.SiteURL)
}

func (h *Hub) remember(msg ActivityMessage) {
	h.recentMu.Lock()
	defer h.recentMu.Unlock()
	h.recent = append(h.recent, msg)
	if len(h.recent) > recentActivityLimit {
		h.recent = h.recent[len(h.recent)-recentActivityLimit:]
	}
}

func (h *Hub) sendBroadcast(msg any, siteURL string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal feed message failed", "error", err)
		return
	}
	select {
	case h.broadcast <- hubBroadcast{data: data, siteURL: siteURL}:
	default:
		slog.Debug("broadcast channel full, dropping message")
	}
}

func (h *Hub) sendError(client *Client, message string) {
	data, err := json.Marshal(ErrorMessage{Type: "error", Message: message})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SetBatchEnabled(enabled bool) {
	h.batchEnabled = enabled
}

func (h *Hub) FlushPendingActivity() {
	if h.batcher != nil {
		h.batcher.FlushAll()
	}
}

func (h *Hub) isRunning() bool {
	return h.running.Load()
}

func (h *Hub) unregisterClient(c *Client) {
	if !h.isRunning() {
		c.conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	select {
	case h.unregister <- c:
	default:
		slog.Debug("unregister channel full, forcing close", "client", c.id)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}
}
