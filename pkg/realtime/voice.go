package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// VerbalQnARequest carries a recorded question. The transcription comes back
// synchronously; the answer streams in later over the channel tagged with
// the same conversation id.
type VerbalQnARequest struct {
	AudioBase64      string `json:"audio_base64"`
	FileExtension    string `json:"file_extension"`
	HighlightedText  string `json:"highlighted_text"`
	PageContent      string `json:"page_content"`
	CurrConversation []Turn `json:"curr_conversation"`
	ConversationID   string `json:"conversation_id"`
}

// VerbalPoster posts a recorded question and returns its transcription.
type VerbalPoster interface {
	PostVerbalQnA(ctx context.Context, req VerbalQnARequest) (transcribed string, err error)
}

type pendingAudio struct {
	audioBase64   string
	fileExtension string
	conversationID string
	viewportText  string
}

// VoiceSession drives the press-and-hold voice variant of a conversation.
// A recording finished before the session has an id is parked together with
// a freshly generated id and flushed exactly once when the host observes
// the session is open.
type VoiceSession struct {
	session *Session
	poster  VerbalPoster

	mu      sync.Mutex
	pending *pendingAudio
}

// NewVoiceSession wraps a conversation session with voice submission.
func NewVoiceSession(session *Session, poster VerbalPoster) *VoiceSession {
	return &VoiceSession{session: session, poster: poster}
}

// Session exposes the underlying conversation session.
func (v *VoiceSession) Session() *Session { return v.session }

// SubmitRecording delivers a finished recording. viewportText is the text
// of the pages currently in view, sent as surrounding context. When the
// session is not open yet the recording is buffered and a candidate id
// generated; FlushPending sends it once the session is open.
func (v *VoiceSession) SubmitRecording(ctx context.Context, audioBase64, fileExtension, viewportText string) error {
	v.session.SetHighlighted(viewportText)

	id := v.session.ID()
	if id == "" {
		v.mu.Lock()
		v.pending = &pendingAudio{
			audioBase64:    audioBase64,
			fileExtension:  fileExtension,
			conversationID: uuid.NewString(),
			viewportText:   viewportText,
		}
		v.mu.Unlock()
		return nil
	}

	return v.post(ctx, audioBase64, fileExtension, viewportText, id)
}

// FlushPending sends a buffered recording exactly once, using the session's
// id now that it exists. Safe to call repeatedly; without pending audio it
// is a no-op.
func (v *VoiceSession) FlushPending(ctx context.Context) error {
	v.mu.Lock()
	pending := v.pending
	v.pending = nil
	v.mu.Unlock()

	if pending == nil {
		return nil
	}

	id := v.session.ID()
	if id == "" {
		id = pending.conversationID
	}
	return v.post(ctx, pending.audioBase64, pending.fileExtension, pending.viewportText, id)
}

// HasPending reports whether a recording awaits flushing.
func (v *VoiceSession) HasPending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending != nil
}

func (v *VoiceSession) post(ctx context.Context, audioBase64, fileExtension, viewportText, id string) error {
	s := v.session

	s.mu.Lock()
	s.sending = true
	s.mu.Unlock()

	if err := s.bus.WaitConnected(ctx); err != nil {
		s.clearSending()
		return err
	}

	transcribed, err := v.poster.PostVerbalQnA(ctx, VerbalQnARequest{
		AudioBase64:     audioBase64,
		FileExtension:   fileExtension,
		HighlightedText: viewportText,
		ConversationID:  id,
	})
	if err != nil {
		s.logger.Printf("realtime: verbal qna post failed: %v", err)
		s.clearSending()
		return err
	}

	if transcribed == "" {
		s.clearSending()
		return nil
	}

	// The transcription seeds the visible history; the assistant turn
	// fills in as chunks arrive.
	s.mu.Lock()
	s.turns = []Turn{
		{Role: RoleUser, Content: transcribed},
		{Role: RoleAssistant},
	}
	s.mu.Unlock()
	return nil
}
