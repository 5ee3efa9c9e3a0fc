// Package websocket carries the session channel: one WebSocket connection
// per coaching session, JSON control messages plus binary audio frames in,
// JSON streaming events out.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/orchestrator"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio frames
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active session clients.
type Hub struct {
	// Registered clients, keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	// sessions builds one orchestrator per connection.
	sessions func(userID string) *orchestrator.Orchestrator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. sessions is called once per
// connection to build that connection's orchestrator.
func NewHub(sessions func(userID string) *orchestrator.Orchestrator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("sessionID", client.sessionID),
				zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client.sessionID)
			h.mu.Unlock()
			// Destroying the orchestrator closes its event channel, which
			// lets forwardEvents drain and close the send queue.
			client.orch.Close()
			h.logger.Info("Client unregistered",
				zap.String("sessionID", client.sessionID))
		}
	}
}

// ActiveSessions reports the number of connected clients.
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the session
// orchestrator.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Session orchestrator owned by this connection.
	orch *orchestrator.Orchestrator

	sessionID string
	userID    string

	// Sequence counter for binary audio frames.
	frameSeq int

	logger *zap.Logger
}

// HandleWebSocket handles websocket requests with a pre-authenticated user
// ID. One orchestrator is created per connection and destroyed with it.
func HandleWebSocket(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	orch := hub.sessions(userID)

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		orch:      orch,
		sessionID: orch.SessionID(),
		userID:    userID,
		logger: logger.With(
			zap.String("sessionID", orch.SessionID()),
			zap.String("userID", userID)),
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go orch.Run()
	go client.writePump()
	go client.forwardEvents()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the orchestrator.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioFrame(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the orchestrator to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
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

// forwardEvents drains the orchestrator's outbound channel into the send
// queue and closes the queue when the orchestrator is destroyed.
func (c *Client) forwardEvents() {
	defer close(c.send)
	for ev := range c.orch.Events() {
		payload, err := EncodeOutbound(ev)
		if err != nil {
			c.logger.Error("Failed to encode outbound event", zap.Error(err))
			continue
		}
		c.enqueue(payload)
	}
}

// processMessage decodes a JSON control message and hands it to the
// orchestrator. Malformed messages are reported back, not fatal.
func (c *Client) processMessage(message []byte) {
	ev, err := DecodeInbound(message)
	if err != nil {
		c.logger.Warn("Malformed message", zap.Error(err))
		payload, encErr := EncodeOutbound(orchestrator.ErrorEvent{
			Code:    orchestrator.CodeMalformedMessage,
			Message: err.Error(),
		})
		if encErr == nil {
			c.enqueue(payload)
		}
		return
	}
	c.orch.Send(ev)
}

// processBinaryAudioFrame wraps raw audio bytes as a frame event. Binary is
// the preferred transport for audio; base64 audio_chunk exists for clients
// that cannot send it.
func (c *Client) processBinaryAudioFrame(data []byte) {
	if len(data) == 0 {
		return
	}
	c.frameSeq++
	payload := make([]byte, len(data))
	copy(payload, data)
	c.orch.Send(orchestrator.AudioFrameEvent{Frame: entities.AudioFrame{
		Sequence:  c.frameSeq,
		Timestamp: time.Now(),
		Data:      payload,
	}})
}

// enqueue queues an outbound payload, dropping the connection when the
// client cannot keep up.
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send queue full, closing connection")
		c.conn.Close()
	}
}
