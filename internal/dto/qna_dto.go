package dto

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type PostQnARequest struct {
	Query            string             `json:"query" validate:"required"`
	HighlightedText  string             `json:"highlighted_text"`
	PageContent      string             `json:"page_content"`
	CurrConversation []ConversationTurn `json:"curr_conversation"`
	ConversationID   string             `json:"conversation_id" validate:"required"`
}

type PostVerbalQnARequest struct {
	AudioBase64      string             `json:"audio_base64" validate:"required"`
	FileExtension    string             `json:"file_extension"`
	HighlightedText  string             `json:"highlighted_text"`
	PageContent      string             `json:"page_content"`
	CurrConversation []ConversationTurn `json:"curr_conversation"`
	ConversationID   string             `json:"conversation_id" validate:"required"`
}

type PostVerbalQnAResponse struct {
	Transcribed string `json:"transcribed"`
}
