// Package relay implements the real-time chat channel: history replay on
// connect, validate-persist-broadcast for inbound messages, and in-channel
// error reporting that never closes the connection.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shabikihub/shabiki/internal/app/metrics"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/pkg/logger"
)

const (
	historyLimit = 50

	maxUserRunes    = 50
	maxMessageRunes = 500
	maxFrameBytes   = 4096

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	persistTimeout = 10 * time.Second
	sendBuffer     = 32
)

// Hub owns the registry of open connections. Registration, removal and
// broadcast fan-out all happen on the run goroutine, so the registry needs no
// lock; broadcast order is the order persistence completed, identical for
// every observer.
type Hub struct {
	store storage.ChatStore
	log   *logger.Logger

	register    chan *connection
	unregister  chan *connection
	broadcast   chan []byte
	connections map[*connection]bool
	quit        chan struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a hub over the given chat store.
func NewHub(store storage.ChatStore, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("relay")
	}
	return &Hub{
		store:       store,
		log:         log,
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		broadcast:   make(chan []byte, 64),
		connections: make(map[*connection]bool),
		quit:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The chat is open to any fan-facing origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Name identifies the relay to the lifecycle manager.
func (h *Hub) Name() string { return "chat-relay" }

// Start launches the hub loop.
func (h *Hub) Start(ctx context.Context) error {
	go h.run()
	return nil
}

// Stop shuts the hub down; open connections are drained and closed.
func (h *Hub) Stop(ctx context.Context) error {
	close(h.quit)
	return nil
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
			metrics.ConnectionOpened()

		case c := <-h.unregister:
			h.drop(c)

		case payload := <-h.broadcast:
			metrics.RecordBroadcast()
			for c := range h.connections {
				select {
				case c.send <- payload:
				default:
					// Slow consumer; dropping it beats stalling the room.
					h.drop(c)
				}
			}

		case <-h.quit:
			for c := range h.connections {
				close(c.send)
				delete(h.connections, c)
				metrics.ConnectionClosed()
			}
			return
		}
	}
}

func (h *Hub) drop(c *connection) {
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
		metrics.ConnectionClosed()
	}
}

// HandleWebSocket upgrades the request and attaches the connection to the
// hub. The history frame is queued before registration so it always precedes
// any broadcast delivered to this connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &connection{
		hub:  h,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}

	c.send <- h.historyPayload(r.Context())

	select {
	case h.register <- c:
	case <-h.quit:
		ws.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) historyPayload(ctx context.Context) []byte {
	messages := make([]messageFrame, 0, historyLimit)

	history, err := h.store.ListChatMessages(ctx, historyLimit)
	if err != nil {
		// New connections still get a (possibly empty) history frame.
		h.log.WithError(err).Warn("failed to load chat history")
	}
	for _, msg := range history {
		messages = append(messages, messageFrame{
			ID:        msg.ID,
			User:      msg.User,
			Message:   msg.Message,
			Timestamp: msg.Timestamp,
		})
	}

	payload, _ := json.Marshal(historyFrame{Type: frameHistory, Messages: messages})
	return payload
}

// handleInbound processes one inbound frame: validate, persist, broadcast.
// Persistence completes before the frame is submitted for broadcast, and the
// read loop handles one frame fully before reading the next, which fixes the
// observed ordering for all participants.
func (h *Hub) handleInbound(c *connection, data []byte) {
	var frame chatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendError("Invalid message format")
		return
	}
	if frame.Type != frameChat {
		return
	}

	input, ok := validateMessage(frame)
	if !ok {
		c.sendError("Invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msg, err := h.store.CreateChatMessage(ctx, input)
	if err != nil {
		h.log.WithError(err).Error("failed to persist chat message")
		c.sendError("Failed to deliver message")
		return
	}

	payload, _ := json.Marshal(messageFrame{
		Type:      frameMessage,
		ID:        msg.ID,
		User:      msg.User,
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
	})

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}
