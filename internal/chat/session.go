package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"docassist-web/internal/backend"
	"docassist-web/internal/shared/generation"
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/telemetry"
)

// Sender delivers a chat message to the assistant.
type Sender interface {
	Chat(ctx context.Context, in backend.ChatRequest) (string, error)
}

// Session is the transcript of one user about one document. Only one message
// may be in flight at a time.
type Session struct {
	userID     string
	documentID string
	sender     Sender
	repo       Repo
	now        func() time.Time

	mu       sync.Mutex
	messages []Message
	inFlight bool
	gen      generation.Counter
	onChange func()
}

// Option configures a Session.
type Option func(*Session)

// WithRepo persists messages through repo.
func WithRepo(repo Repo) Option {
	return func(s *Session) { s.repo = repo }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnChange registers a callback run after every transcript change.
func WithOnChange(fn func()) Option {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates an empty session.
func NewSession(userID, documentID string, sender Sender, opts ...Option) *Session {
	s := &Session{
		userID:     userID,
		documentID: documentID,
		sender:     sender,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted transcript when the session is still empty.
func (s *Session) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	msgs, err := s.repo.List(ctx, s.userID, s.documentID, 0)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if len(s.messages) == 0 {
		s.messages = msgs
	}
	s.mu.Unlock()
	return nil
}

// Send appends text as a user message right away, then asks the assistant.
// The request carries the HistoryLimit messages that preceded text. On
// failure a FailureReply message is appended and the error is returned
// together with it.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	history := historyOf(s.messages)
	userMsg := newMessage(RoleUser, text, s.now())
	s.messages = append(s.messages, userMsg)
	s.inFlight = true
	token := s.gen.Next()
	s.mu.Unlock()
	s.changed()

	s.persist(ctx, userMsg)
	metrics.IncChatSent()

	reply, err := s.sender.Chat(ctx, backend.ChatRequest{
		Message: text,
		History: history,
		UserID:  s.userID,
		DocID:   s.documentID,
	})

	s.mu.Lock()
	if !s.gen.Current(token) {
		s.mu.Unlock()
		metrics.IncStaleResponse()
		return Message{}, ErrStale
	}
	s.inFlight = false
	var out Message
	if err != nil {
		out = newMessage(RoleAssistant, FailureReply, s.now())
		out.Failed = true
	} else {
		out = newMessage(RoleAssistant, reply, s.now())
	}
	s.messages = append(s.messages, out)
	s.mu.Unlock()
	s.changed()

	if err != nil {
		metrics.IncChatFailed()
		telemetry.Error("chat.send_failed", map[string]any{
			"user_id":     s.userID,
			"document_id": s.documentID,
			"error":       err.Error(),
		})
		return out, err
	}
	s.persist(ctx, out)
	return out, nil
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Busy reports whether a message is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Reset empties the transcript. A reply still in flight is discarded.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.gen.Invalidate()
	s.messages = nil
	s.inFlight = false
	s.mu.Unlock()
	s.changed()
	if s.repo == nil {
		return nil
	}
	return s.repo.Clear(ctx, s.userID, s.documentID)
}

func (s *Session) persist(ctx context.Context, msg Message) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Append(ctx, s.userID, s.documentID, msg); err != nil {
		telemetry.Warn("chat.persist_failed", map[string]any{
			"document_id": s.documentID,
			"error":       err.Error(),
		})
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func historyOf(msgs []Message) []backend.ChatTurn {
	if len(msgs) > HistoryLimit {
		msgs = msgs[len(msgs)-HistoryLimit:]
	}
	out := make([]backend.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, backend.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return out
}
