package relay

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/shabikihub/shabiki/internal/app/domain/chat"
)

// connection is one open chat participant. Inbound frames are processed
// strictly in arrival order by the read pump; outbound frames are serialized
// through the buffered send channel and the write pump.
type connection struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
}

func (c *connection) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.hub.handleInbound(c, data)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError reports a rejected frame to this connection only. The connection
// stays open.
func (c *connection) sendError(message string) {
	payload, _ := json.Marshal(errorFrame{Type: frameError, Message: message})
	select {
	case c.send <- payload:
	default:
	}
}

// validateMessage checks the inbound frame against the message creation
// contract: non-empty user and message after trimming, within length bounds.
func validateMessage(frame chatFrame) (chat.NewMessage, bool) {
	user := strings.TrimSpace(frame.User)
	text := strings.TrimSpace(frame.Message)

	if user == "" || text == "" {
		return chat.NewMessage{}, false
	}
	if utf8.RuneCountInString(user) > maxUserRunes || utf8.RuneCountInString(text) > maxMessageRunes {
		return chat.NewMessage{}, false
	}
	return chat.NewMessage{User: user, Message: text}, true
}
