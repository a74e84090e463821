package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis key prefixes
const (
	presenceKey         = "realtime:presence:online"
	presenceChannel     = "realtime:presence"
	profileEventChannel = "realtime:profile_events"
)

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

// profileEventMessage carries an event between server instances over Redis
type profileEventMessage struct {
	ProfileID        string          `json:"profile_id"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents one WebSocket connection; a profile may hold
// several at once (multiple devices or tabs).
type Connection struct {
	ProfileID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub maps profile IDs to live connections and fans state-change events
// out to them. Delivery is best effort: closed or saturated sockets are
// skipped and a profile with no sockets simply misses the event; clients
// reconcile from the store on the next fetch.
type Hub struct {
	// Local connections (this server instance only)
	connections map[uuid.UUID]map[*Connection]bool

	// Redis client for cross-instance Pub/Sub; nil means local-only
	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a new WebSocket hub
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a new hub with an explicit instance identifier
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, profileEventChannel, presenceChannel)
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.ProfileID] == nil {
				h.connections[conn.ProfileID] = make(map[*Connection]bool)
			}
			h.connections[conn.ProfileID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)

			h.publishPresence(conn.ProfileID, true)
			log.Debug().Str("profile_id", conn.ProfileID.String()).Msg("Profile connected to WebSocket")

		case conn := <-h.unregister:
			shouldPublishOffline := false
			h.mu.Lock()
			if conns, ok := h.connections[conn.ProfileID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.ProfileID)
					shouldPublishOffline = true
				}
			}
			h.mu.Unlock()

			if shouldPublishOffline {
				h.publishPresence(conn.ProfileID, false)
			}
			log.Debug().Str("profile_id", conn.ProfileID.String()).Msg("Profile disconnected from WebSocket")
		}
	}
}

// runRedisSubscriber listens for events published by other instances
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			switch msg.Channel {
			case profileEventChannel:
				h.handleProfileEventPayload(msg.Payload)
			case presenceChannel:
				log.Debug().Str("presence", msg.Payload).Msg("Presence update received")
			}
		}
	}
}

func (h *Hub) handleProfileEventPayload(payload string) {
	var event profileEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	if event.SenderInstanceID == h.instanceID {
		return
	}
	profileID, err := uuid.Parse(event.ProfileID)
	if err != nil {
		return
	}
	h.sendLocal(profileID, []byte(event.Payload))
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// SendToProfile delivers an event to every open connection the profile
// holds, on this instance and (via Redis) every other one. Errors are
// returned for logging only; callers must never fail a write on them.
func (h *Hub) SendToProfile(profileID uuid.UUID, event *Event) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	h.sendLocal(profileID, data)
	return h.publishProfileEvent(profileID, data)
}

func (h *Hub) sendLocal(profileID uuid.UUID, data []byte) {
	h.mu.RLock()
	conns, ok := h.connections[profileID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	for conn := range conns {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			// Buffer full, skip this event
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("profile_id", profileID.String()).Msg("WebSocket send buffer full")
		}
	}
}

func (h *Hub) publishProfileEvent(profileID uuid.UUID, data []byte) error {
	if h.redis == nil {
		return nil
	}

	event := profileEventMessage{
		ProfileID:        profileID.String(),
		Payload:          data,
		SenderInstanceID: h.instanceID,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.redis.Publish(h.ctx, profileEventChannel, payload).Err()
}

// publishPresence publishes profile online/offline status to Redis
func (h *Hub) publishPresence(profileID uuid.UUID, online bool) {
	if h.redis == nil {
		return
	}

	ctx := context.Background()

	if online {
		h.redis.SAdd(ctx, presenceKey, profileID.String())
		h.redis.Expire(ctx, presenceKey, 5*time.Minute)
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:online", profileID))
	} else {
		h.redis.SRem(ctx, presenceKey, profileID.String())
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:offline", profileID))
	}
}

// IsOnline checks if a profile has an open connection (across instances)
func (h *Hub) IsOnline(profileID uuid.UUID) bool {
	if h.redis == nil {
		h.mu.RLock()
		conns, ok := h.connections[profileID]
		h.mu.RUnlock()
		return ok && len(conns) > 0
	}

	return h.redis.SIsMember(context.Background(), presenceKey, profileID.String()).Val()
}

// ConnectionCount returns the number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
