package store

// Turn is one message inside an active conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the active QnA exchange state kept in memory while an
// answer streams. It is looked up by the client-chosen conversation id; the
// canonical copy is sent back on turn-over.
type Conversation struct {
	ID     string `json:"id"` // conversation id chosen by the client
	UserID string `json:"user_id"`

	Turns []Turn `json:"turns"`

	// Context captured with the last question.
	HighlightedText string `json:"highlighted_text"`
	PageContent     string `json:"page_content"`
	LastQuery       string `json:"last_query"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
