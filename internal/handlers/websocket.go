package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the router level
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	userService    *services.UserService
	messageService *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	messageService *services.MessageService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		messageService: messageService,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := middleware.ValidateWebSocketToken(token, h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	tracker := h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := middleware.WithUserID(r.Context(), userID)
	h.hub.PushInitialState(ctx, userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, tracker, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, tracker *services.Tracker, msg services.WSMessage) error {
	switch msg.Type {
	case services.WSTypeOpenConversation:
		return h.handleOpenConversation(ctx, userID, tracker, msg.PeerID)
	case services.WSTypeCloseConversation:
		tracker.CloseConversation()
		return nil
	default:
		return h.sendError(userID, "Unknown message type")
	}
}

// handleOpenConversation marks the conversation open, flips its unread
// messages to read, and pushes the full transcript back
func (h *WebSocketHandler) handleOpenConversation(ctx context.Context, userID string, tracker *services.Tracker, peerID string) error {
	if peerID == "" {
		return h.sendError(userID, "peer_id is required")
	}

	transcript, err := h.messageService.Open(ctx, userID, peerID)
	if err != nil {
		return err
	}

	tracker.OpenConversation(peerID)

	return h.hub.SendToUser(userID, services.WSMessage{
		Type:   services.WSTypeTranscript,
		PeerID: peerID,
		Data:   transcript,
	})
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID, message string) error {
	return h.hub.SendToUser(userID, services.WSMessage{
		Type:    services.WSTypeError,
		Message: message,
	})
}
