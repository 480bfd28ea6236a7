package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Default maximum message size allowed from peer.
	defaultMaxMessageSize = 32 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Translator runs one translation and reports its stage events
type Translator interface {
	Run(ctx context.Context, req entities.PipelineRequest, opts ...usecase.RunOption) (*entities.PipelineResult, error)
}

// Options tunes the hub
type Options struct {
	// RequestTimeout bounds a single translation; zero means no limit
	RequestTimeout time.Duration
	// MaxMessageBytes bounds an incoming message, base64 audio included
	MaxMessageBytes int64
}

// Hub maintains the set of active clients
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	quit chan struct{}
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	translator Translator
	opts       Options
	logger     *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(translator Translator, opts Options, logger *zap.Logger) *Hub {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = defaultMaxMessageSize
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		translator: translator,
		opts:       opts,
		logger:     logger,
	}
}

// Run starts the hub's main loop; it returns after Shutdown
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case <-h.quit:
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.Unlock()
			for _, c := range clients {
				h.remove(c)
			}
			return
		}
	}
}

// Shutdown disconnects every client and stops Run
func (h *Hub) Shutdown() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	<-h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
	}
	h.mu.Unlock()
	client.close()
}

// WriteData is one outbound frame
type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id  string
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// ctx is cancelled when the connection goes away
	ctx    context.Context
	cancel context.CancelFunc

	// busy is set while a translation is running
	busy atomic.Bool

	validator *MessageValidator
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	client := &Client{
		id:        id,
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		ctx:       ctx,
		cancel:    cancel,
		validator: NewMessageValidator(),
		logger:    logger.With(zap.String("clientID", id)),
	}

	select {
	case client.hub.register <- client:
	case <-hub.quit:
		cancel()
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
	return nil
}

// close cancels in-flight work and stops the write pump
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.send)
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)
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

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unsupported frame type", zap.Int("type", messageType))
			c.enqueue(CreateErrorMessage("invalid_message", "only text frames are accepted", ""))
			continue
		}
		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
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

// enqueue marshals msg and queues it for the write pump. Messages sent after
// the client closed are dropped.
func (c *Client) enqueue(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}

// processMessage processes incoming messages from the peer
func (c *Client) processMessage(message []byte) {
	msg, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message", zap.Error(err))
		c.enqueue(CreateErrorMessage("invalid_message", "message rejected", err.Error()))
		return
	}

	switch m := msg.(type) {
	case *PingMessage:
		c.enqueue(CreatePongMessage(m.Data))
	case *TranslateMessage:
		if !c.busy.CompareAndSwap(false, true) {
			busy := CreateErrorMessage("busy", "a translation is already running on this connection", "")
			busy.MessageID = m.MessageID
			c.enqueue(busy)
			return
		}
		go c.handleTranslate(m)
	}
}

// handleTranslate runs one pipeline and streams its progress
func (c *Client) handleTranslate(msg *TranslateMessage) {
	defer c.busy.Store(false)

	ctx := c.ctx
	if c.hub.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.hub.opts.RequestTimeout)
		defer cancel()
	}

	req := msg.Request()
	c.logger.Info("Translation requested",
		zap.String("messageID", msg.MessageID),
		zap.String("from", req.SourceLang),
		zap.String("to", req.TargetLang),
		zap.Int("audioBytes", len(req.Audio.Data)))

	result, err := c.hub.translator.Run(ctx, req, usecase.WithStageObserver(func(ev entities.StageEvent) {
		if ev.State == entities.PipelineStateFailed {
			return
		}
		c.enqueue(CreateStageMessage(msg.MessageID, ev))
	}))
	if err != nil {
		c.enqueue(CreatePipelineErrorMessage(msg.MessageID, err))
		return
	}

	audio := result.Audio.Data
	if len(audio) == 0 && result.Audio.Path != "" {
		audio, err = os.ReadFile(result.Audio.Path)
		if err != nil {
			c.logger.Error("Failed to read translated audio", zap.String("path", result.Audio.Path), zap.Error(err))
			c.enqueue(CreatePipelineErrorMessage(msg.MessageID, err))
			return
		}
	}
	c.enqueue(CreateResultMessage(msg.MessageID, result, audio))
}
