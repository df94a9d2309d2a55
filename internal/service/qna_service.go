package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-ereader-be/internal/constant"
	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/repository/memory"
	"ai-ereader-be/pkg/llm"
	"ai-ereader-be/pkg/realtime"
	"ai-ereader-be/pkg/store"
	"ai-ereader-be/pkg/transcribe"
	"ai-ereader-be/pkg/utils"

	"github.com/google/uuid"
)

type IQnAService interface {
	PostQnA(ctx context.Context, userId uuid.UUID, req *dto.PostQnARequest) error
	PostVerbalQnA(ctx context.Context, userId uuid.UUID, req *dto.PostVerbalQnARequest) (*dto.PostVerbalQnAResponse, error)
}

type qnaService struct {
	llmProvider   llm.LLMProvider
	transcriber   transcribe.Provider
	conversations *memory.ConversationRepository
	publisher     IPublisherService
	chunkWords    int
}

func NewQnAService(
	llmProvider llm.LLMProvider,
	transcriber transcribe.Provider,
	conversations *memory.ConversationRepository,
	publisher IPublisherService,
	chunkWords int,
) IQnAService {
	if chunkWords <= 0 {
		chunkWords = 4
	}
	return &qnaService{
		llmProvider:   llmProvider,
		transcriber:   transcriber,
		conversations: conversations,
		publisher:     publisher,
		chunkWords:    chunkWords,
	}
}

// PostQnA accepts a question and returns immediately; the answer streams to
// the user's websocket as `reader-qna` chunk frames tagged with the
// conversation id, closed by a turn-over frame carrying the canonical
// conversation.
func (c *qnaService) PostQnA(ctx context.Context, userId uuid.UUID, req *dto.PostQnARequest) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return fmt.Errorf("empty query")
	}

	conv := c.buildConversation(userId, req, query)
	c.conversations.Save(conv)

	// The request context dies with the HTTP response; generation runs on
	// its own.
	go c.generate(context.Background(), userId, conv)

	return nil
}

// PostVerbalQnA transcribes the recording synchronously, then streams the
// answer the same way PostQnA does. An empty transcription short-circuits:
// nothing to ask, no stream follows.
func (c *qnaService) PostVerbalQnA(ctx context.Context, userId uuid.UUID, req *dto.PostVerbalQnARequest) (*dto.PostVerbalQnAResponse, error) {
	transcribed, err := c.transcriber.Transcribe(ctx, req.AudioBase64, req.FileExtension)
	if err != nil {
		return nil, fmt.Errorf("transcribe recording: %w", err)
	}

	transcribed = strings.TrimSpace(transcribed)
	if transcribed == "" {
		return &dto.PostVerbalQnAResponse{Transcribed: ""}, nil
	}

	textReq := &dto.PostQnARequest{
		Query:            transcribed,
		HighlightedText:  req.HighlightedText,
		PageContent:      req.PageContent,
		CurrConversation: req.CurrConversation,
		ConversationID:   req.ConversationID,
	}
	if err := c.PostQnA(ctx, userId, textReq); err != nil {
		return nil, err
	}

	return &dto.PostVerbalQnAResponse{Transcribed: transcribed}, nil
}

func (c *qnaService) buildConversation(userId uuid.UUID, req *dto.PostQnARequest, query string) *store.Conversation {
	conv, found := c.conversations.Get(req.ConversationID)
	if !found {
		conv = &store.Conversation{
			ID:     req.ConversationID,
			UserID: userId.String(),
		}
	}

	// The client sends its full history including the new question; trust it
	// when present, otherwise extend what we hold.
	if len(req.CurrConversation) > 0 {
		turns := make([]store.Turn, len(req.CurrConversation))
		for i, t := range req.CurrConversation {
			turns[i] = store.Turn{Role: t.Role, Content: t.Content}
		}
		conv.Turns = turns
	}
	if len(conv.Turns) == 0 || conv.Turns[len(conv.Turns)-1].Content != query {
		conv.Turns = append(conv.Turns, store.Turn{Role: store.RoleUser, Content: query})
	}

	conv.HighlightedText = req.HighlightedText
	conv.PageContent = req.PageContent
	conv.LastQuery = query
	return conv
}

func (c *qnaService) generate(ctx context.Context, userId uuid.UUID, conv *store.Conversation) {
	history := make([]llm.Message, 0, len(conv.Turns)+1)
	history = append(history, llm.Message{
		Role:    "system",
		Content: fmt.Sprintf(constant.QnASystemPrompt, conv.HighlightedText, conv.PageContent),
	})
	for _, turn := range conv.Turns {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	// Provider fragments are token-sized; regroup them into word chunks so
	// the socket is not flooded.
	buf := newChunkBuffer(c.chunkWords, func(chunk string) error {
		return c.publishFrame(ctx, userId, chunkFrame(conv.ID, chunk))
	})

	answer, err := c.llmProvider.ChatStream(ctx, history, buf.Add)
	if err != nil {
		log.Printf("[ERROR] QnA generation failed for conversation %s: %v", conv.ID, err)
		c.publishError(ctx, userId, conv.ID, "Answer generation failed. Please try again.")
		return
	}
	if err := buf.Flush(); err != nil {
		log.Printf("[ERROR] QnA chunk delivery failed for conversation %s: %v", conv.ID, err)
		c.publishError(ctx, userId, conv.ID, "Answer delivery failed. Please try again.")
		return
	}

	conv.Turns = append(conv.Turns, store.Turn{Role: store.RoleAssistant, Content: answer})
	c.conversations.Save(conv)

	body, err := json.Marshal(conv.Turns)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal conversation %s: %v", conv.ID, err)
		return
	}
	frame := realtime.Frame{
		Service:        realtime.ServiceReaderQnA,
		Event:          realtime.EventTurnOver,
		Body:           body,
		ConversationID: conv.ID,
	}
	if err := c.publishFrame(ctx, userId, frame); err != nil {
		log.Printf("[ERROR] Failed to publish turn-over for conversation %s: %v", conv.ID, err)
	}
}

func (c *qnaService) publishError(ctx context.Context, userId uuid.UUID, conversationID, message string) {
	body, _ := json.Marshal(message)
	frame := realtime.Frame{
		Service:        realtime.ServiceReaderQnA,
		Event:          realtime.EventError,
		Body:           body,
		ConversationID: conversationID,
	}
	if err := c.publishFrame(ctx, userId, frame); err != nil {
		log.Printf("[ERROR] Failed to publish error frame for conversation %s: %v", conversationID, err)
	}
}

func (c *qnaService) publishFrame(ctx context.Context, userId uuid.UUID, frame realtime.Frame) error {
	delivery := RealtimeDelivery{
		UserID: userId.String(),
		Frame:  frame,
	}
	payload, err := json.Marshal(delivery)
	if err != nil {
		return err
	}
	return c.publisher.Publish(ctx, payload)
}

func chunkFrame(conversationID, chunk string) realtime.Frame {
	body, _ := json.Marshal(chunk)
	return realtime.Frame{
		Service:        realtime.ServiceReaderQnA,
		Event:          realtime.EventChunk,
		Body:           body,
		ConversationID: conversationID,
	}
}

// chunkBuffer accumulates stream fragments and emits them in whole-word
// groups, preserving the original bytes.
type chunkBuffer struct {
	words   int
	pending string
	emit    func(chunk string) error
}

func newChunkBuffer(words int, emit func(chunk string) error) *chunkBuffer {
	return &chunkBuffer{words: words, emit: emit}
}

func (b *chunkBuffer) Add(fragment string) error {
	b.pending += fragment
	for {
		cut := utils.CutAfterWords(b.pending, b.words)
		if cut < 0 {
			return nil
		}
		chunk := b.pending[:cut]
		b.pending = b.pending[cut:]
		if err := b.emit(chunk); err != nil {
			return err
		}
	}
}

func (b *chunkBuffer) Flush() error {
	if b.pending == "" {
		return nil
	}
	chunk := b.pending
	b.pending = ""
	return b.emit(chunk)
}
