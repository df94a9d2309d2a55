package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeVerbalPoster struct {
	mu          sync.Mutex
	reqs        []VerbalQnARequest
	transcribed string
	err         error
}

func (p *fakeVerbalPoster) PostVerbalQnA(_ context.Context, req VerbalQnARequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.reqs = append(p.reqs, req)
	return p.transcribed, nil
}

func (p *fakeVerbalPoster) requests() []VerbalQnARequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]VerbalQnARequest(nil), p.reqs...)
}

func TestVoiceSubmitWithOpenSession(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	id := s.Open()
	poster := &fakeVerbalPoster{transcribed: "what is this chart"}
	v := NewVoiceSession(s, poster)

	if err := v.SubmitRecording(context.Background(), "b64audio", "webm", "page text"); err != nil {
		t.Fatalf("SubmitRecording: %v", err)
	}
	if v.HasPending() {
		t.Error("recording buffered despite open session")
	}

	reqs := poster.requests()
	if len(reqs) != 1 {
		t.Fatalf("posted requests = %d, want 1", len(reqs))
	}
	if reqs[0].ConversationID != id {
		t.Errorf("conversation id = %q, want %q", reqs[0].ConversationID, id)
	}
	if reqs[0].AudioBase64 != "b64audio" || reqs[0].FileExtension != "webm" {
		t.Errorf("audio payload = %+v", reqs[0])
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "what is this chart" {
		t.Errorf("user turn = %+v", history[0])
	}
	if !s.Sending() {
		t.Error("sending not set while answer streams")
	}
}

func TestVoiceBuffersUntilSessionOpens(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	poster := &fakeVerbalPoster{transcribed: "buffered question"}
	v := NewVoiceSession(s, poster)

	if err := v.SubmitRecording(context.Background(), "b64audio", "webm", "page text"); err != nil {
		t.Fatalf("SubmitRecording: %v", err)
	}
	if !v.HasPending() {
		t.Fatal("recording not buffered while session closed")
	}
	if len(poster.requests()) != 0 {
		t.Fatal("recording posted before flush")
	}

	id := s.Open()
	if err := v.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}
	reqs := poster.requests()
	if len(reqs) != 1 {
		t.Fatalf("posted requests = %d, want 1", len(reqs))
	}
	if reqs[0].ConversationID != id {
		t.Errorf("conversation id = %q, want session id %q", reqs[0].ConversationID, id)
	}

	// Repeated flushes must not resend.
	if err := v.FlushPending(context.Background()); err != nil {
		t.Fatalf("second FlushPending: %v", err)
	}
	if len(poster.requests()) != 1 {
		t.Error("pending recording sent twice")
	}
	if v.HasPending() {
		t.Error("pending flag survived flush")
	}
}

func TestVoiceFlushWithoutSessionUsesGeneratedID(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	poster := &fakeVerbalPoster{transcribed: "question"}
	v := NewVoiceSession(s, poster)

	if err := v.SubmitRecording(context.Background(), "b64audio", "webm", ""); err != nil {
		t.Fatalf("SubmitRecording: %v", err)
	}
	if err := v.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}

	reqs := poster.requests()
	if len(reqs) != 1 {
		t.Fatalf("posted requests = %d, want 1", len(reqs))
	}
	if reqs[0].ConversationID == "" {
		t.Error("flush without session id posted empty conversation id")
	}
}

func TestVoiceEmptyTranscriptionClearsSending(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	s.Open()
	v := NewVoiceSession(s, &fakeVerbalPoster{transcribed: ""})

	if err := v.SubmitRecording(context.Background(), "b64audio", "webm", ""); err != nil {
		t.Fatalf("SubmitRecording: %v", err)
	}
	if s.Sending() {
		t.Error("sending stuck after empty transcription")
	}
	if len(s.History()) != 0 {
		t.Error("history seeded despite empty transcription")
	}
}

func TestVoicePostFailureClearsSending(t *testing.T) {
	s := NewSession(newFakeBus(), &fakePoster{}, quietLogger())
	s.Open()
	v := NewVoiceSession(s, &fakeVerbalPoster{err: errors.New("transcription failed")})

	if err := v.SubmitRecording(context.Background(), "b64audio", "webm", ""); err == nil {
		t.Fatal("SubmitRecording succeeded, want error")
	}
	if s.Sending() {
		t.Error("sending stuck after post failure")
	}
}
