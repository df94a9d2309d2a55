package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ai-ereader-be/internal/pkg/logger"
	"ai-ereader-be/pkg/realtime"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub owns the reader websocket connections. Every frame carries a service
// name; the client side fans frames out to the subscribers of that service,
// so one connection serves QnA streaming and library events at once.
type Hub struct {
	// Registered clients map: UserID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Identifies this instance on the cluster channel so its own
	// publications are not re-delivered locally.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID, "conn_id": client.ConnID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a frame to every connection of one user and fans it out to
// other instances over Redis.
func (h *Hub) Send(userID uuid.UUID, frame realtime.Frame) {
	frame.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			h.deliver(client, frame)
		}
	}

	// Publish to Redis for other instances (and other devices)
	if h.rdb != nil {
		data, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("Hub", "Failed to marshal frame", map[string]interface{}{"error": err})
			return
		}
		payload := map[string]interface{}{
			"origin":         h.instanceID,
			"target_user_id": userID.String(),
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// Broadcast delivers a frame to ALL connected clients.
func (h *Hub) Broadcast(frame realtime.Frame) {
	frame.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			h.deliver(client, frame)
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		data, err := json.Marshal(frame)
		if err != nil {
			return
		}
		payload := map[string]interface{}{
			"origin":         h.instanceID,
			"target_user_id": "*", // Wildcard for broadcast
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// deliver stamps the frame with the receiving connection's id and queues it.
// A full send buffer drops the connection rather than blocking the hub.
func (h *Hub) deliver(client *Client, frame realtime.Frame) {
	frame.ConnectionID = client.ConnID
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal frame", map[string]interface{}{"error": err})
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
		// Unregister closes the channel; deliver may run under the read
		// lock, so hand off without blocking.
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "cluster_events" carrying
	// {target_user_id, message}; each delivers to the users it holds
	// locally. "*" targets every client.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			Origin       string          `json:"origin"`
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		// Already delivered locally by the publishing path.
		if payload.Origin == h.instanceID {
			continue
		}

		var frame realtime.Frame
		if err := json.Unmarshal(payload.Message, &frame); err != nil {
			log.Printf("Redis frame parse error: %v", err)
			continue
		}

		if payload.TargetUserID == "*" {
			h.mu.RLock()
			for _, clients := range h.clients {
				for _, client := range clients {
					h.deliver(client, frame)
				}
			}
			h.mu.RUnlock()
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[uid]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				h.deliver(client, frame)
			}
		}
	}
}
