package service

import (
	"encoding/json"
	"testing"
	"time"

	"ai-ereader-be/pkg/events"
	"ai-ereader-be/pkg/realtime"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type fakeDelivery struct {
	sent      map[uuid.UUID][]realtime.Frame
	broadcast []realtime.Frame
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{sent: make(map[uuid.UUID][]realtime.Frame)}
}

func (f *fakeDelivery) Send(userID uuid.UUID, frame realtime.Frame) {
	f.sent[userID] = append(f.sent[userID], frame)
}

func (f *fakeDelivery) Broadcast(frame realtime.Frame) {
	f.broadcast = append(f.broadcast, frame)
}

func assertAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Error("message was not acked")
	}
}

func TestProcessMessageRoutesToUser(t *testing.T) {
	sink := newFakeDelivery()
	ds := &dispatchService{hub: sink}
	userId := uuid.New()

	payload, _ := json.Marshal(RealtimeDelivery{
		UserID: userId.String(),
		Frame: realtime.Frame{
			Service:        realtime.ServiceReaderQnA,
			Event:          realtime.EventChunk,
			Body:           json.RawMessage(`"hello"`),
			ConversationID: "conv-1",
		},
	})
	msg := message.NewMessage(watermill.NewUUID(), payload)

	ds.processMessage(msg)
	assertAcked(t, msg)

	frames := sink.sent[userId]
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Event != realtime.EventChunk || frames[0].ConversationID != "conv-1" {
		t.Errorf("frame = %+v", frames[0])
	}
}

func TestProcessMessageAcksGarbage(t *testing.T) {
	sink := newFakeDelivery()
	ds := &dispatchService{hub: sink}

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	ds.processMessage(msg)
	assertAcked(t, msg)

	badUser, _ := json.Marshal(RealtimeDelivery{UserID: "not-a-uuid"})
	msg2 := message.NewMessage(watermill.NewUUID(), badUser)
	ds.processMessage(msg2)
	assertAcked(t, msg2)

	if len(sink.sent) != 0 || len(sink.broadcast) != 0 {
		t.Errorf("invalid messages must not deliver: %+v %+v", sink.sent, sink.broadcast)
	}
}

func TestProcessEventTargetsOwner(t *testing.T) {
	sink := newFakeDelivery()
	ds := &dispatchService{hub: sink}
	userId := uuid.New()

	// The subscriber hands the raw subject through as the event type.
	ds.processEvent(events.BaseEvent{
		Type: "events." + events.TypeProcessingComplete,
		Data: map[string]interface{}{
			"title_id": uuid.NewString(),
			"user_id":  userId.String(),
		},
	})

	frames := sink.sent[userId]
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Service != realtime.ServiceLibrary {
		t.Errorf("service = %q", frames[0].Service)
	}
	if frames[0].Event != events.TypeProcessingComplete {
		t.Errorf("subject prefix leaked to client: %q", frames[0].Event)
	}
	if len(sink.broadcast) != 0 {
		t.Errorf("targeted event must not broadcast")
	}
}

func TestProcessEventWithoutUserBroadcasts(t *testing.T) {
	sink := newFakeDelivery()
	ds := &dispatchService{hub: sink}

	ds.processEvent(events.BaseEvent{
		Type: "events.MAINTENANCE",
		Data: map[string]interface{}{"message": "rolling restart"},
	})

	if len(sink.broadcast) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(sink.broadcast))
	}
	if sink.broadcast[0].Event != "MAINTENANCE" {
		t.Errorf("event = %q", sink.broadcast[0].Event)
	}
	if len(sink.sent) != 0 {
		t.Errorf("user-less event must not target anyone")
	}
}
