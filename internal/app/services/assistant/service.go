// Package assistant exposes the conversational football analyst.
package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shabikihub/shabiki/pkg/logger"
)

const (
	maxMessageRunes = 1000
	maxHistoryTurns = 10
)

var (
	// ErrEmptyMessage is returned when the inbound message is blank.
	ErrEmptyMessage = errors.New("message must be a non-empty string")

	// ErrMessageTooLong is returned when the message exceeds the cap.
	ErrMessageTooLong = errors.New("message must be less than 1000 characters")
)

// Turn is one prior exchange supplied by the client for context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Responder produces the assistant's reply. Implementations must not fail:
// on upstream errors they return a fixed fallback reply instead.
type Responder interface {
	AssistantReply(ctx context.Context, message string, history []Turn) string
}

// Service validates assistant requests and delegates to the responder.
type Service struct {
	responder Responder
	log       *logger.Logger
}

// New creates a configured assistant service.
func New(responder Responder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("assistant")
	}
	return &Service{responder: responder, log: log}
}

// Reply validates the message, truncates history to the most recent turns
// and returns the assistant's response.
func (s *Service) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		return "", ErrMessageTooLong
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	return s.responder.AssistantReply(ctx, message, history), nil
}
