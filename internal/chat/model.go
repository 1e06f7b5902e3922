// Package chat keeps the per-document chat transcript and talks to the chat
// endpoint.
package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FailureReply is appended in place of an answer when the chat call fails.
const FailureReply = "Извините, произошла ошибка при обработке вашего запроса. Попробуйте еще раз."

// HistoryLimit is the number of earlier messages sent with a new one.
const HistoryLimit = 10

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy is returned while another message is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrStale is returned when the transcript was reset while waiting for a reply.
	ErrStale = errors.New("reply discarded: transcript was reset")
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Failed marks the assistant message appended after a failed call.
	Failed bool `json:"failed,omitempty"`
}

func newMessage(role, content string, now time.Time) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: now}
}
