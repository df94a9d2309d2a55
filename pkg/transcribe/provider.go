package transcribe

import "context"

// Provider converts a recorded question into text. Audio arrives base64
// encoded straight from the client recorder.
type Provider interface {
	Transcribe(ctx context.Context, audioBase64, fileExtension string) (string, error)
}
