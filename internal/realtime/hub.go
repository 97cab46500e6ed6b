// Package realtime pushes chat replies to open websocket connections.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
	maxMessage = 8 << 10
)

// Event types sent to and received from clients.
const (
	EventChat  = "chat"
	EventReply = "reply"
	EventError = "error"
)

// InboundMessage is what a client sends over the socket.
type InboundMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Lang    string `json:"lang,omitempty"`
}

// Event is what the server pushes.
type Event struct {
	Type  string               `json:"type"`
	Reply *models.ChatResponse `json:"reply,omitempty"`
	Error string               `json:"error,omitempty"`
}

// ChatFunc runs one chat turn for a message that arrived on a socket.
// Its error text is sent to the client verbatim.
type ChatFunc func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connections per user id.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish delivers resp to every connection of userID. Slow connections
// miss the event rather than stall the caller.
func (h *Hub) Publish(userID string, resp *models.ChatResponse) {
	h.broadcast(userID, Event{Type: EventReply, Reply: resp})
}

// Connections returns the number of open sockets for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) broadcast(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode realtime event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Realtime client too slow, dropping event", zap.String("user_id", userID))
		}
	}
}

// ServeWS upgrades the request and serves the socket until it closes.
// Chat messages from the client run through chat; the reply reaches the
// socket through Publish.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, chat ChatFunc) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(r.Context(), c, chat)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.RealtimeConnections.Inc()
	h.logger.Debug("Realtime client connected", zap.String("user_id", c.userID))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.RealtimeConnections.Dec()
	h.logger.Debug("Realtime client disconnected", zap.String("user_id", c.userID))
}

func (h *Hub) readPump(ctx context.Context, c *client, chat ChatFunc) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if msg.Type != EventChat || chat == nil {
			continue
		}

		_, err := chat(ctx, models.ChatRequest{
			UserID:  c.userID,
			Message: msg.Message,
			Lang:    msg.Lang,
		})
		if err != nil {
			h.sendTo(c, Event{Type: EventError, Error: err.Error()})
		}
	}
}

func (h *Hub) sendTo(c *client, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.userID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
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
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
