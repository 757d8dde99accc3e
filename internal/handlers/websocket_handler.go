package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - can be restricted in production
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub *services.WebSocketHub
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection.
// Authenticated clients are subscribed to their own timelapse and photo
// topics so progress and post events arrive without an explicit subscribe.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := h.hub.NewClient(clientID, conn)

	h.hub.Register(client)

	if user := middleware.GetUserFromContext(r.Context()); user != nil {
		h.hub.SetUserID(client, user.ID)
		h.hub.Subscribe(client, services.TimelapseTopicFor(user.ID))
		h.hub.Subscribe(client, services.PhotosTopicFor(user.ID))
	}

	go client.WritePump()

	// Blocks until the connection closes
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(client *services.WSClient, messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg services.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.Warnf("Invalid WebSocket message: %v", err)
		return
	}

	switch msg.Type {
	case services.WSTypeSubscribe:
		if topic := topicFromPayload(msg.Payload); topic != "" {
			h.hub.Subscribe(client, topic)
		}

	case services.WSTypeUnsubscribe:
		if topic := topicFromPayload(msg.Payload); topic != "" {
			h.hub.Unsubscribe(client, topic)
		}

	case services.WSTypePing:
		response := services.WSMessage{Type: services.WSTypePong}
		if data, err := json.Marshal(response); err == nil {
			client.Send <- data
		}

	default:
		observability.Warnf("Unknown WebSocket message type: %s", msg.Type)
	}
}

// topicFromPayload accepts both a bare string payload and {"topic": "..."}
func topicFromPayload(payload interface{}) string {
	if topic, ok := payload.(string); ok {
		return topic
	}
	if m, ok := payload.(map[string]interface{}); ok {
		if topic, ok := m["topic"].(string); ok {
			return topic
		}
	}
	return ""
}
