// Package gateway streams simulation events to WebSocket spectators.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer   = 256
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotFunc returns the JSON-encodable view of an NPC's matrix.
type SnapshotFunc func(npcID string) (any, bool)

// Message is the envelope for everything sent to or received from clients.
type Message struct {
	Type  string          `json:"type"`
	NPC   string          `json:"npc,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Connection represents a spectator.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub manages spectator connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64
	snapshots   SnapshotFunc
	logger      zerolog.Logger
}

func New(snapshots SnapshotFunc, logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		snapshots:   snapshots,
		logger:      logger.With().Str("component", "gateway").Logger(),
	}
}

// HandleWebSocket upgrades the request and starts the connection pumps.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	h.mu.Lock()
	h.nextConnID++
	c := &Connection{
		ID:   fmt.Sprintf("conn_%d", h.nextConnID),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Hub:  h,
	}
	h.connections[c.ID] = c
	total := len(h.connections)
	h.mu.Unlock()

	h.logger.Info().Str("conn", c.ID).Int("total", total).Msg("spectator connected")
	c.reply(Message{Type: "welcome", Data: mustJSON(map[string]string{"id": c.ID})})

	go c.readPump()
	go c.writePump()
}

// Count returns the number of connected spectators.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast sends v as a JSON text frame to every spectator. Slow clients
// whose buffers are full miss the message.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		select {
		case c.Send <- data:
		default:
		}
	}
	return nil
}

func (h *Hub) removeConnection(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, c.ID)
	close(c.Send)
	total := len(h.connections)
	h.mu.Unlock()
	h.logger.Info().Str("conn", c.ID).Int("total", total).Msg("spectator disconnected")
}

func (c *Connection) readPump() {
	defer func() {
		c.Hub.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug().Err(err).Str("conn", c.ID).Msg("read error")
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(data)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(Message{Type: "error", Error: "malformed message"})
		return
	}
	switch msg.Type {
	case "ping":
		c.reply(Message{Type: "pong"})
	case "snapshot":
		if c.Hub.snapshots == nil {
			c.reply(Message{Type: "error", NPC: msg.NPC, Error: "snapshots unavailable"})
			return
		}
		snap, ok := c.Hub.snapshots(msg.NPC)
		if !ok {
			c.reply(Message{Type: "error", NPC: msg.NPC, Error: "unknown npc"})
			return
		}
		raw, err := json.Marshal(snap)
		if err != nil {
			c.reply(Message{Type: "error", NPC: msg.NPC, Error: err.Error()})
			return
		}
		c.reply(Message{Type: "snapshot", NPC: msg.NPC, Data: raw})
	default:
		c.reply(Message{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// reply queues msg for this connection only.
func (c *Connection) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if _, ok := c.Hub.connections[c.ID]; !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustJSON(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
