package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/escrow"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Hub fans purchase-request events out to wallets subscribed over WebSocket.
// It replaces polling a shared store: each side hears about the other's
// transitions as they commit.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]bool
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan escrow.Event
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Proof of concept: the dashboard and portals are served
				// from arbitrary dev origins.
				return true
			},
		},
		logger: logger,
	}
}

// Publish delivers an event to every live subscription for the address.
// Implements escrow.Publisher. Slow consumers are dropped, not waited on.
func (h *Hub) Publish(address string, event escrow.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers[address] {
		select {
		case sub.send <- event:
		default:
			h.logger.Warn("dropping event for slow subscriber", zap.String("address", address))
		}
	}
}

// HandleWS handles GET /ws?address=...
func (h *Hub) HandleWS(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing address parameter"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{conn: conn, send: make(chan escrow.Event, sendBufferSize)}
	h.add(address, sub)
	h.logger.Info("wallet subscribed", zap.String("address", address))

	go h.writePump(sub)
	h.readPump(address, sub)
}

func (h *Hub) add(address string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[address] == nil {
		h.subscribers[address] = make(map[*subscriber]bool)
	}
	h.subscribers[address][sub] = true
}

func (h *Hub) remove(address string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscribers[address]; ok {
		if subs[sub] {
			delete(subs, sub)
			close(sub.send)
		}
		if len(subs) == 0 {
			delete(h.subscribers, address)
		}
	}
}

// readPump discards client frames and watches for disconnects
func (h *Hub) readPump(address string, sub *subscriber) {
	defer func() {
		h.remove(address, sub)
		sub.conn.Close()
	}()
	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()
	for {
		select {
		case event, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
