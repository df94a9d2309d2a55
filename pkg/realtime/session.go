package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Service and event names observed on the wire.
const (
	ServiceReaderQnA = "reader-qna"
	ServiceLibrary   = "library"

	EventChunk    = "chunk"
	EventTurnOver = "turn-over"
	EventError    = "error"

	EventProcessingComplete = "PROCESSING_COMPLETE"
	EventProcessingFailed   = "PROCESSING_FAILED"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. The last assistant turn is mutated
// append-only while chunks stream in, then frozen on turn-over.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QnARequest is the payload posted to start (or continue) an answer.
type QnARequest struct {
	Query           string `json:"query"`
	HighlightedText string `json:"highlighted_text"`
	PageContent     string `json:"page_content"`
	CurrConversation []Turn `json:"curr_conversation"`
	ConversationID  string `json:"conversation_id"`
}

// QnAPoster issues the QnA request once the channel is confirmed connected.
type QnAPoster interface {
	PostQnA(ctx context.Context, req QnARequest) error
}

// Bus is the slice of Channel a session depends on.
type Bus interface {
	Subscribe(service string, fn Handler) func()
	WaitConnected(ctx context.Context) error
}

var (
	// ErrSessionBusy rejects a send while a previous one is still streaming.
	ErrSessionBusy = errors.New("realtime: session is already sending")
	// ErrSessionClosed rejects operations on a session with no id.
	ErrSessionClosed = errors.New("realtime: session not open")
)

// Session is one text QnA interaction: a conversation id, an ordered turn
// history, and a sending flag. All state lives in this one mutex-guarded
// object so asynchronous handlers always read current values.
type Session struct {
	bus    Bus
	poster QnAPoster
	logger *log.Logger

	mu          sync.Mutex
	id          string
	turns       []Turn
	sending     bool
	highlighted string
	unsub       func()
}

// NewSession creates a session bound to the shared channel.
func NewSession(bus Bus, poster QnAPoster, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{bus: bus, poster: poster, logger: logger}
}

// Open assigns a fresh conversation id if none exists and subscribes to the
// QnA service. Returns the session's id.
func (s *Session) Open() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = uuid.NewString()
		s.unsub = s.bus.Subscribe(ServiceReaderQnA, s.handleFrame)
	}
	return s.id
}

// Reset clears id, history and the sending flag. Idempotent and always safe
// to call; closing the panel maps here. The backend is not told to abort.
// Late frames for the abandoned id simply find no matching session.
func (s *Session) Reset() {
	s.mu.Lock()
	unsub := s.unsub
	s.id = ""
	s.turns = nil
	s.sending = false
	s.highlighted = ""
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// ID returns the current conversation id, empty when idle.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Sending reports whether a reply is still streaming.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// History returns a copy of the conversation turns.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// SetHighlighted records the selected text sent as context with the next
// question.
func (s *Session) SetHighlighted(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlighted = text
}

// Send appends the user turn and an empty assistant turn optimistically,
// then dispatches the request once the channel confirms it is connected.
func (s *Session) Send(ctx context.Context, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}

	s.mu.Lock()
	if s.id == "" {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.sending {
		s.mu.Unlock()
		return ErrSessionBusy
	}

	prior := make([]Turn, len(s.turns))
	copy(prior, s.turns)
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: msg}, Turn{Role: RoleAssistant})
	s.sending = true
	id := s.id
	highlighted := s.highlighted
	s.mu.Unlock()

	req := QnARequest{
		Query:            msg,
		HighlightedText:  highlighted,
		CurrConversation: append(prior, Turn{Role: RoleUser, Content: msg}),
		ConversationID:   id,
	}

	if err := s.bus.WaitConnected(ctx); err != nil {
		s.clearSending()
		return err
	}
	if err := s.poster.PostQnA(ctx, req); err != nil {
		s.logger.Printf("realtime: qna post failed: %v", err)
		s.clearSending()
		return err
	}
	return nil
}

func (s *Session) clearSending() {
	s.mu.Lock()
	s.sending = false
	s.mu.Unlock()
}

// handleFrame applies streamed events for this session's conversation id;
// frames for a foreign id are ignored, which is what lets many sessions
// share one channel.
func (s *Session) handleFrame(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ConversationID == "" || f.ConversationID != s.id {
		return
	}

	switch f.Event {
	case EventChunk:
		chunk := f.BodyString()
		if len(s.turns) == 0 {
			s.turns = []Turn{{Role: RoleAssistant, Content: chunk}}
			return
		}
		s.turns[len(s.turns)-1].Content += chunk

	case EventTurnOver:
		s.sending = false
		if saved := decodeSavedConversation(f.Body); len(saved) > 0 {
			s.turns = saved
		}

	case EventError:
		// The partially streamed assistant turn stays as-is.
		s.sending = false
	}
}

// savedTurn is a turn as the backend persists it; content may arrive as a
// plain string or a list of text fragments.
type savedTurn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

func decodeSavedConversation(body json.RawMessage) []Turn {
	var raw []savedTurn
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	turns := make([]Turn, 0, len(raw))
	for _, st := range raw {
		role := st.Role
		if role != RoleUser && role != RoleAssistant {
			role = RoleAssistant
		}
		turns = append(turns, Turn{Role: role, Content: normalizeContent(st.Content)})
	}
	return turns
}

func normalizeContent(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fragments []json.RawMessage
	if err := json.Unmarshal(raw, &fragments); err != nil {
		return ""
	}

	var b strings.Builder
	for _, frag := range fragments {
		var text string
		if err := json.Unmarshal(frag, &text); err == nil {
			b.WriteString(text)
			continue
		}
		var obj struct {
			Text    string `json:"text"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(frag, &obj); err == nil {
			if obj.Text != "" {
				b.WriteString(obj.Text)
			} else {
				b.WriteString(obj.Content)
			}
		}
	}
	return b.String()
}
