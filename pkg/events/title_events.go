package events

import "time"

// Event types emitted by the document processing pipeline. These travel as
// NATS subjects (events.<type>) and are forwarded to websocket clients as
// `library` frames with the same event name.
const (
	TypeProcessingComplete = "PROCESSING_COMPLETE"
	TypeProcessingFailed   = "PROCESSING_FAILED"
)

// NewTitleProcessedEvent builds the event published when a title finishes
// (or fails) parsing.
func NewTitleProcessedEvent(titleID, userID string, success bool) Event {
	eventType := TypeProcessingComplete
	if !success {
		eventType = TypeProcessingFailed
	}
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"title_id": titleID,
			"user_id":  userID,
		},
		OccurredAt: time.Now(),
	}
}
