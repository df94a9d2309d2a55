package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"ai-ereader-be/internal/websocket"
	"ai-ereader-be/pkg/events"
	pkgNats "ai-ereader-be/pkg/nats"
	"ai-ereader-be/pkg/realtime"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// RealtimeDelivery wraps a frame with its target user for transport between
// the service that produced it and the hub that delivers it.
type RealtimeDelivery struct {
	UserID string         `json:"user_id"`
	Frame  realtime.Frame `json:"frame"`
}

// FrameDelivery is the hub surface the dispatcher needs. *websocket.Hub
// implements it.
type FrameDelivery interface {
	Send(userID uuid.UUID, frame realtime.Frame)
	Broadcast(frame realtime.Frame)
}

var _ FrameDelivery = (*websocket.Hub)(nil)

type IDispatchService interface {
	Start(ctx context.Context) error
}

type dispatchService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	subscriber *pkgNats.Subscriber
	hub        FrameDelivery
}

func NewDispatchService(
	pubSub *gochannel.GoChannel,
	topicName string,
	subscriber *pkgNats.Subscriber,
	hub FrameDelivery,
) IDispatchService {
	return &dispatchService{
		pubSub:     pubSub,
		topicName:  topicName,
		subscriber: subscriber,
		hub:        hub,
	}
}

// Start wires both frame sources into the hub: the in-process chunk topic and
// the durable event stream. It returns once the subscriptions are
// established; delivery runs in the background.
func (ds *dispatchService) Start(ctx context.Context) error {
	messages, err := ds.pubSub.Subscribe(ctx, ds.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ds.processMessage(msg)
		}
	}()

	if ds.subscriber != nil {
		err = ds.subscriber.Subscribe("events.>", "dispatch-service", func(ctx context.Context, event events.Event) error {
			ds.processEvent(event)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (ds *dispatchService) processMessage(msg *message.Message) {
	var delivery RealtimeDelivery
	if err := json.Unmarshal(msg.Payload, &delivery); err != nil {
		log.Printf("[ERROR] Failed to unmarshal delivery message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	userId, err := uuid.Parse(delivery.UserID)
	if err != nil {
		log.Printf("[ERROR] Invalid target user id %q: %v", delivery.UserID, err)
		msg.Ack()
		return
	}

	ds.hub.Send(userId, delivery.Frame)
	msg.Ack()
}

// processEvent turns a processing event into a library frame. The subject
// prefix is transport detail; the client sees the bare event name.
func (ds *dispatchService) processEvent(event events.Event) {
	eventType := strings.TrimPrefix(event.EventType(), "events.")
	data := event.Payload()

	body, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal event %s body: %v", eventType, err)
		return
	}
	frame := realtime.Frame{
		Service: realtime.ServiceLibrary,
		Event:   eventType,
		Body:    body,
	}

	// Events without a target user are announcements for every client.
	rawUser, ok := data["user_id"].(string)
	if !ok || rawUser == "" {
		ds.hub.Broadcast(frame)
		return
	}
	userId, err := uuid.Parse(rawUser)
	if err != nil {
		log.Printf("[ERROR] Invalid user id in event %s: %v", eventType, err)
		return
	}

	ds.hub.Send(userId, frame)
}
