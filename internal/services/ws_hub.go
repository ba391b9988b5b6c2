package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message in either direction
type WSMessage struct {
	Type    string      `json:"type"`
	PeerID  string      `json:"peer_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Outbound message types
const (
	WSTypePendingRequests       = "pending_requests"
	WSTypeFriendRequest         = "friend_request"
	WSTypeFriendRequestResolved = "friend_request_resolved"
	WSTypeConversations         = "conversations"
	WSTypeConversationPatch     = "conversation_patch"
	WSTypeMessageNew            = "message_new"
	WSTypeTranscript            = "transcript"
	WSTypeAnnouncementsChanged  = "announcements_changed"
	WSTypeError                 = "error"
)

// Inbound message types
const (
	WSTypeOpenConversation  = "open_conversation"
	WSTypeCloseConversation = "close_conversation"
)

const eventHandleTimeout = 10 * time.Second

type wsClient struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	tracker *Tracker
}

func (c *wsClient) send(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// WSHub manages WebSocket connections and routes row-change events from the
// bus to the affected users, patching each connection's tracked conversation
// state along the way.
type WSHub struct {
	mu            sync.RWMutex
	clients       map[string]*wsClient
	friendships   *FriendshipService
	conversations *ConversationService
	messages      *MessageService
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(friendships *FriendshipService, conversations *ConversationService, messages *MessageService) *WSHub {
	return &WSHub{
		clients:       make(map[string]*wsClient),
		friendships:   friendships,
		conversations: conversations,
		messages:      messages,
	}
}

// Register registers a new WebSocket connection for a user and returns the
// tracker holding that connection's live conversation state
func (h *WSHub) Register(userID string, conn *websocket.Conn) *Tracker {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
	}

	client := &wsClient{
		conn:    conn,
		tracker: NewTracker(userID),
	}
	h.clients[userID] = client

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")

	return client.tracker
}

// Unregister removes the WebSocket connection for a user. The conn guard
// keeps a stale goroutine from tearing down a newer connection.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[userID]; ok && client.conn == conn {
		client.conn.Close()
		delete(h.clients, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, msg WSMessage) error {
	client := h.client(userID)
	if client == nil {
		return fmt.Errorf("user %s is not connected", userID)
	}
	return client.send(msg)
}

func (h *WSHub) client(userID string) *wsClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// ReserveTag registers a client correlation tag on the sender's connection
// ahead of the store write. Without it the echoed bus event could land
// before NoteSent and be applied twice.
func (h *WSHub) ReserveTag(userID, tag string) {
	if client := h.client(userID); client != nil {
		client.tracker.ReserveTag(tag)
	}
}

// NoteSent records an optimistic send on the sender's connection so the
// echoed bus event is dropped instead of double-applied
func (h *WSHub) NoteSent(userID string, msg *models.Message) {
	if client := h.client(userID); client != nil {
		client.tracker.NoteSent(msg)
	}
}

// HandleEvent routes a bus event to the connected users it affects. Events
// for users without a connection are dropped.
func (h *WSHub) HandleEvent(topic string, evt events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), eventHandleTimeout)
	defer cancel()

	switch topic {
	case events.TopicFriendRequests:
		h.handleFriendEvent(ctx, evt)
	case events.TopicMessages:
		h.handleMessageEvent(ctx, evt)
	case events.TopicAnnouncements:
		h.broadcast(WSMessage{Type: WSTypeAnnouncementsChanged})
	}
}

func (h *WSHub) handleFriendEvent(ctx context.Context, evt events.Event) {
	req := evt.Request
	if req == nil {
		return
	}

	switch evt.Op {
	case events.OpInsert:
		// Incremental patch for the receiver's pending list.
		if client := h.client(req.ReceiverID); client != nil {
			if err := client.send(WSMessage{Type: WSTypeFriendRequest, Data: req}); err != nil {
				log.Error().Err(err).Str("user_id", req.ReceiverID).Msg("Failed to push friend request")
			}
		}
	case events.OpUpdate:
		for _, userID := range []string{req.SenderID, req.ReceiverID} {
			client := h.client(userID)
			if client == nil {
				continue
			}
			if err := client.send(WSMessage{Type: WSTypeFriendRequestResolved, Data: req}); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to push request resolution")
				continue
			}
			// A newly accepted friendship adds a conversation peer.
			if client.tracker.FriendshipChanged(req) {
				h.pushConversations(ctx, userID, client)
			}
		}
	}
}

func (h *WSHub) handleMessageEvent(ctx context.Context, evt events.Event) {
	msg := evt.Message
	if msg == nil || evt.Op != events.OpInsert {
		return
	}

	for _, userID := range []string{msg.SenderID, msg.ReceiverID} {
		client := h.client(userID)
		if client == nil {
			continue
		}

		res := client.tracker.ApplyMessage(msg)
		if res.Duplicate {
			continue
		}

		if res.AppendToOpen {
			if err := client.send(WSMessage{Type: WSTypeMessageNew, PeerID: client.tracker.OpenPeer(), Data: msg}); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to push message")
			}
		}
		if res.MarkReadFrom != "" {
			if err := h.messages.MarkConversationRead(ctx, userID, res.MarkReadFrom); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to mark conversation read")
			}
		}
		if res.NeedRefetch {
			h.pushConversations(ctx, userID, client)
			continue
		}
		if res.Patched != nil {
			if err := client.send(WSMessage{Type: WSTypeConversationPatch, Data: res.Patched}); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to push conversation patch")
			}
		}
	}
}

// PushInitialState sends the pending request list and conversation list to a
// freshly connected user
func (h *WSHub) PushInitialState(ctx context.Context, userID string) {
	client := h.client(userID)
	if client == nil {
		return
	}
	h.pushPending(ctx, userID, client)
	h.pushConversations(ctx, userID, client)
}

func (h *WSHub) pushPending(ctx context.Context, userID string, client *wsClient) {
	pending, err := h.friendships.PendingFor(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch pending requests")
		return
	}
	if err := client.send(WSMessage{Type: WSTypePendingRequests, Data: pending}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to push pending requests")
	}
}

func (h *WSHub) pushConversations(ctx context.Context, userID string, client *wsClient) {
	list, err := h.conversations.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to rebuild conversation list")
		return
	}
	client.tracker.SetList(list)
	if err := client.send(WSMessage{Type: WSTypeConversations, Data: list}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to push conversations")
	}
}

func (h *WSHub) broadcast(msg WSMessage) {
	h.mu.RLock()
	clients := make(map[string]*wsClient, len(h.clients))
	for id, c := range h.clients {
		clients[id] = c
	}
	h.mu.RUnlock()

	for userID, client := range clients {
		if err := client.send(msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to broadcast message")
		}
	}
}
