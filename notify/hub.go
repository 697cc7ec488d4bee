// notify/hub.go
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aegis-admin/aegis/identity"
	logger "github.com/aegis-admin/aegis/logging"
	"github.com/aegis-admin/aegis/util"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin panel and API share an origin; same-origin policy is enforced
	// upstream by the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is one notification pushed to connected admin sessions
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

// Hub fans notifications out to connected admin sessions over websockets.
// It subscribes to the event bus so task completions and permission changes
// surface in the UI without polling.
type Hub struct {
	mu            sync.RWMutex
	clients       map[*client]struct{}
	identityCache *identity.Cache
}

func NewHub(identityCache *identity.Cache, eventBus *util.EventBus) *Hub {
	h := &Hub{
		clients:       make(map[*client]struct{}),
		identityCache: identityCache,
	}
	eventBus.Subscribe(util.EventTaskFinished, func(ctx context.Context, event util.Event) error {
		h.Broadcast(Message{Type: event.Type, Payload: event.Payload})
		return nil
	})
	return h
}

// ServeWS upgrades the request to a websocket. The token travels as a query
// parameter because browser websocket clients cannot set headers; it goes
// through the same resolution path as a Bearer token.
func (h *Hub) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token missing"})
		return
	}
	ident, err := h.identityCache.Resolve(c.Request.Context(), token)
	if err != nil {
		util.HandleError(c, err)
		c.Abort()
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: ident.ID,
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	logger.Info("Websocket client connected", zap.Int64("userID", ident.ID))
	go cl.writePump()
	go cl.readPump()
}

// Broadcast sends a message to every connected client. Slow clients are
// dropped rather than buffered without bound.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			go h.remove(cl)
		}
	}
}

// ClientCount returns the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		close(cl.send)
		cl.conn.Close()
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
	}
	h.mu.Unlock()
	if ok {
		close(cl.send)
		cl.conn.Close()
	}
}

// readPump discards inbound frames; the hub is push-only. It exists to
// process control frames and detect closed connections.
func (cl *client) readPump() {
	defer cl.hub.remove(cl)
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case data, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
