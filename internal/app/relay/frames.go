package relay

import "time"

// Frame types recognized on the chat channel.
const (
	frameChat    = "chat"
	frameHistory = "history"
	frameMessage = "message"
	frameError   = "error"
)

// chatFrame is the single inbound frame kind accepted from clients.
type chatFrame struct {
	Type    string `json:"type"`
	User    string `json:"user"`
	Message string `json:"message"`
}

// messageFrame carries one persisted message. Type is set for broadcasts and
// omitted for entries inside a history frame.
type messageFrame struct {
	Type      string    `json:"type,omitempty"`
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// historyFrame replays recent messages to a newly opened connection.
type historyFrame struct {
	Type     string         `json:"type"`
	Messages []messageFrame `json:"messages"`
}

// errorFrame reports a rejected inbound frame to its sender only.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
