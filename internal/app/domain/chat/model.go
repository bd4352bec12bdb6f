package chat

import "time"

// Message is a persisted group-chat message. Timestamp is assigned server
// side at persistence time; history ordering is strictly ascending by it.
type Message struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage carries the validated inbound fields; id and Timestamp are
// assigned by the storage layer.
type NewMessage struct {
	User    string `json:"user"`
	Message string `json:"message"`
}
