package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxAttachmentBytes = 20 << 20

// MessageHandler handles conversation and message HTTP requests
type MessageHandler struct {
	messageService      *services.MessageService
	conversationService *services.ConversationService
	wsHub               *services.WSHub
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	messageService *services.MessageService,
	conversationService *services.ConversationService,
	wsHub *services.WSHub,
) *MessageHandler {
	return &MessageHandler{
		messageService:      messageService,
		conversationService: conversationService,
		wsHub:               wsHub,
	}
}

// Conversations handles GET /api/v1/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	list, err := h.conversationService.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list conversations")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"conversations": list})
}

// Open handles GET /api/v1/conversations/{peer_id}/messages. Opening a
// conversation marks everything from the peer as read before returning the
// transcript.
func (h *MessageHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	peerID := chi.URLParam(r, "peer_id")

	transcript, err := h.messageService.Open(r.Context(), userID, peerID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("peer_id", peerID).
			Msg("Failed to open conversation")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": transcript})
}

// SendBody represents the JSON request body for sending a message
type SendBody struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	ClientTag  string `json:"client_tag"`
}

// Send handles POST /api/v1/messages. A JSON body sends a plain text message;
// a multipart form with a "file" part sends an attachment.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var (
		body       SendBody
		attachment *services.Attachment
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
			respondError(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		body.ReceiverID = r.FormValue("receiver_id")
		body.Content = r.FormValue("content")
		body.ClientTag = r.FormValue("client_tag")

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes))
			if err != nil {
				respondError(w, "Failed to read file", http.StatusBadRequest)
				return
			}
			attachment = &services.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	// Reserve the correlation tag before the write: the echoed notification
	// can arrive ahead of NoteSent and must already read as a duplicate.
	if body.ClientTag != "" {
		h.wsHub.ReserveTag(userID, body.ClientTag)
	}

	msg, err := h.messageService.Send(r.Context(), userID, body.ReceiverID, body.Content, attachment, body.ClientTag)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("receiver_id", body.ReceiverID).
			Msg("Failed to send message")
		respondServiceError(w, err)
		return
	}

	// The sender applies the message locally on this response; remember it so
	// the echoed realtime notification is dropped.
	h.wsHub.NoteSent(userID, msg)

	log.Info().
		Str("user_id", userID).
		Str("receiver_id", body.ReceiverID).
		Str("message_id", msg.ID).
		Msg("Message sent")

	respondJSON(w, http.StatusCreated, msg)
}
