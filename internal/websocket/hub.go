package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-research-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// SubscribeAll is the stream id a client uses to watch every job at once.
const SubscribeAll = "*"

type Hub struct {
	// Registered clients map: job id -> list of watchers (multi-tab)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fanout
	rdb *redis.Client

	// Pub/sub channel carrying job events between instances
	channel string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, channel string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		channel:    channel,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.JobID] = append(h.clients[client.JobID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Watcher registered", map[string]interface{}{"job_id": client.JobID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				for i, c := range clients {
					if c == client {
						// Remove from slice. The hub is the only closer of
						// Send, so a second unregister for the same client
						// is a no-op.
						h.clients[client.JobID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.JobID]) == 0 {
					delete(h.clients, client.JobID)
					h.logger.Info("Hub", "Last watcher left", map[string]interface{}{"job_id": client.JobID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastJob (JobStreamDelivery interface implementation)
//
// Pushes one serialized job event to every watcher of jobID. With Redis
// attached the event takes the pub/sub path so that each instance,
// including this one, delivers exactly once.
func (h *Hub) BroadcastJob(jobID string, payload []byte) {
	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"job_id":  jobID,
			"message": json.RawMessage(payload),
		})
		if err := h.rdb.Publish(context.Background(), h.channel, envelope).Err(); err == nil {
			return
		}
		h.logger.Warn("Hub", "Redis publish failed, delivering locally only", map[string]interface{}{"job_id": jobID})
	}
	h.deliverLocal(jobID, payload)
}

// deliverLocal fans payload out to local watchers of jobID and to wildcard
// watchers. Sends happen under the read lock so the unregister path cannot
// close a channel mid-send; slow clients are dropped after the lock is
// released.
func (h *Hub) deliverLocal(jobID string, payload []byte) {
	var dropped []*Client

	h.mu.RLock()
	for _, client := range h.clients[jobID] {
		select {
		case client.Send <- payload:
		default:
			dropped = append(dropped, client)
		}
	}
	if jobID != SubscribeAll {
		for _, client := range h.clients[SubscribeAll] {
			select {
			case client.Send <- payload:
			default:
				dropped = append(dropped, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range dropped {
		h.logger.Warn("Hub", "Watcher send buffer full, dropping connection", map[string]interface{}{"job_id": client.JobID})
		h.unregister <- client
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the same channel and delivers to
	// whichever watchers it holds locally. Instances with no watcher for
	// the job simply drop the event.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			JobID   string          `json:"job_id"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		if payload.JobID == "" {
			continue
		}
		h.deliverLocal(payload.JobID, payload.Message)
	}
}
