package constant

// Messages surfaced to the reader client.
const (
	MsgNoteSaveConflict = "This note changed somewhere else. Please try saving again."
	MsgNoteSaveBusy     = "A previous save is still in progress."
)

// QnASystemPrompt frames the assistant as a reading companion. The
// highlighted passage and the visible page text are injected as context.
const QnASystemPrompt = `You are a reading assistant. The user is reading a document and asks questions about it.

Highlighted passage:
%s

Visible page content:
%s

Answer concisely, grounded in the passage and page content above. If the answer is not in the text, say so.`
