package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeBus struct {
	mu       sync.Mutex
	subs     map[string][]Handler
	unsubbed int
	waitErr  error
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string][]Handler)}
}

func (b *fakeBus) Subscribe(service string, fn Handler) func() {
	b.mu.Lock()
	b.subs[service] = append(b.subs[service], fn)
	idx := len(b.subs[service]) - 1
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.subs[service][idx] = nil
		b.unsubbed++
		b.mu.Unlock()
	}
}

func (b *fakeBus) WaitConnected(context.Context) error { return b.waitErr }

func (b *fakeBus) emit(f Frame) {
	b.mu.Lock()
	handlers := append([]Handler(nil), b.subs[f.Service]...)
	b.mu.Unlock()
	for _, fn := range handlers {
		if fn != nil {
			fn(f)
		}
	}
}

type fakePoster struct {
	mu   sync.Mutex
	reqs []QnARequest
	err  error
}

func (p *fakePoster) PostQnA(_ context.Context, req QnARequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.reqs = append(p.reqs, req)
	return nil
}

func (p *fakePoster) requests() []QnARequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]QnARequest(nil), p.reqs...)
}

func TestSessionOpenAssignsStableID(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	id := s.Open()
	if id == "" {
		t.Fatal("Open returned empty id")
	}
	if again := s.Open(); again != id {
		t.Errorf("second Open = %q, want %q", again, id)
	}
}

func TestSessionSendAppendsOptimisticTurns(t *testing.T) {
	poster := &fakePoster{}
	s := NewSession(newFakeBus(), poster, quietLogger())
	s.Open()
	s.SetHighlighted("selected passage")

	if err := s.Send(context.Background(), "what does this mean?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "what does this mean?" {
		t.Errorf("user turn = %+v", history[0])
	}
	if history[1].Role != RoleAssistant || history[1].Content != "" {
		t.Errorf("assistant placeholder = %+v", history[1])
	}
	if !s.Sending() {
		t.Error("Sending() = false after dispatch")
	}

	reqs := poster.requests()
	if len(reqs) != 1 {
		t.Fatalf("posted requests = %d, want 1", len(reqs))
	}
	if reqs[0].ConversationID != s.ID() {
		t.Errorf("request conversation id = %q, want %q", reqs[0].ConversationID, s.ID())
	}
	if reqs[0].HighlightedText != "selected passage" {
		t.Errorf("highlighted = %q", reqs[0].HighlightedText)
	}
	if len(reqs[0].CurrConversation) != 1 || reqs[0].CurrConversation[0].Content != "what does this mean?" {
		t.Errorf("curr_conversation = %+v", reqs[0].CurrConversation)
	}
}

func TestSessionSendGuards(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())

	if err := s.Send(context.Background(), "hello"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("send before open = %v, want ErrSessionClosed", err)
	}
	if err := s.Send(context.Background(), "   "); err != nil {
		t.Errorf("blank send = %v, want nil no-op", err)
	}

	s.Open()
	if err := s.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Send(context.Background(), "second"); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("concurrent send = %v, want ErrSessionBusy", err)
	}
}

func TestSessionPostFailureClearsSending(t *testing.T) {
	poster := &fakePoster{err: errors.New("backend down")}
	s := NewSession(newFakeBus(), poster, quietLogger())
	s.Open()

	if err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	if s.Sending() {
		t.Error("sending flag stuck after post failure")
	}
	// The optimistic turns stay visible.
	if got := len(s.History()); got != 2 {
		t.Errorf("history = %d turns, want 2", got)
	}
}

func TestSessionChunksAccumulate(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	id := s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, chunk := range []string{"The ", "answer ", "is 42."} {
		body, _ := json.Marshal(chunk)
		bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: id, Body: body})
	}

	history := s.History()
	if got := history[len(history)-1].Content; got != "The answer is 42." {
		t.Errorf("assistant turn = %q", got)
	}
	if !s.Sending() {
		t.Error("sending cleared before turn-over")
	}

	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventTurnOver, ConversationID: id})
	if s.Sending() {
		t.Error("sending still set after turn-over")
	}
}

func TestSessionIgnoresForeignConversation(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	id := s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: "other", Body: json.RawMessage(`"noise"`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, Body: json.RawMessage(`"untagged"`)})

	history := s.History()
	if got := history[len(history)-1].Content; got != "" {
		t.Errorf("assistant turn = %q, want untouched", got)
	}

	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: id, Body: json.RawMessage(`"mine"`)})
	history = s.History()
	if got := history[len(history)-1].Content; got != "mine" {
		t.Errorf("assistant turn = %q, want %q", got, "mine")
	}
}

func TestTwoSessionsShareOneBus(t *testing.T) {
	bus := newFakeBus()
	a := NewSession(bus, &fakePoster{}, quietLogger())
	b := NewSession(bus, &fakePoster{}, quietLogger())
	idA := a.Open()
	idB := b.Open()

	if err := a.Send(context.Background(), "question a"); err != nil {
		t.Fatalf("Send a: %v", err)
	}
	if err := b.Send(context.Background(), "question b"); err != nil {
		t.Fatalf("Send b: %v", err)
	}

	// Interleaved chunks for both conversations over the same connection.
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: idA, Body: json.RawMessage(`"alpha "`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: idB, Body: json.RawMessage(`"beta "`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: idA, Body: json.RawMessage(`"one"`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: idB, Body: json.RawMessage(`"two"`)})

	historyA := a.History()
	historyB := b.History()
	if got := historyA[len(historyA)-1].Content; got != "alpha one" {
		t.Errorf("session a assistant turn = %q", got)
	}
	if got := historyB[len(historyB)-1].Content; got != "beta two" {
		t.Errorf("session b assistant turn = %q", got)
	}
}

func TestSessionTurnOverReplacesHistory(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	id := s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	canonical := `[
		{"role": "user", "content": "question"},
		{"role": "assistant", "content": [{"text": "part one "}, {"text": "part two"}]}
	]`
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventTurnOver, ConversationID: id, Body: json.RawMessage(canonical)})

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[1].Content != "part one part two" {
		t.Errorf("assistant turn = %q", history[1].Content)
	}
	if s.Sending() {
		t.Error("sending still set")
	}
}

func TestSessionTurnOverWithoutBodyKeepsHistory(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	id := s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: id, Body: json.RawMessage(`"streamed"`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventTurnOver, ConversationID: id})

	history := s.History()
	if got := history[len(history)-1].Content; got != "streamed" {
		t.Errorf("assistant turn = %q, want streamed content kept", got)
	}
}

func TestSessionErrorKeepsPartialAnswer(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	id := s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventChunk, ConversationID: id, Body: json.RawMessage(`"partial"`)})
	bus.emit(Frame{Service: ServiceReaderQnA, Event: EventError, ConversationID: id, Body: json.RawMessage(`"boom"`)})

	if s.Sending() {
		t.Error("sending still set after error")
	}
	history := s.History()
	if got := history[len(history)-1].Content; got != "partial" {
		t.Errorf("assistant turn = %q, want partial answer kept", got)
	}
}

func TestSessionResetIsIdempotent(t *testing.T) {
	bus := newFakeBus()
	s := NewSession(bus, &fakePoster{}, quietLogger())
	s.Open()
	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	s.Reset()
	s.Reset()

	if s.ID() != "" {
		t.Error("id survived reset")
	}
	if len(s.History()) != 0 {
		t.Error("history survived reset")
	}
	if s.Sending() {
		t.Error("sending survived reset")
	}
	bus.mu.Lock()
	unsubbed := bus.unsubbed
	bus.mu.Unlock()
	if unsubbed != 1 {
		t.Errorf("unsubscribe count = %d, want 1", unsubbed)
	}
}

func TestNormalizeContentShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"hello"`, "hello"},
		{"string fragments", `["a", "b"]`, "ab"},
		{"text objects", `[{"text": "x"}, {"text": "y"}]`, "xy"},
		{"content objects", `[{"content": "z"}]`, "z"},
		{"mixed", `["a", {"text": "b"}]`, "ab"},
		{"unknown", `42`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeContent(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("normalizeContent(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
