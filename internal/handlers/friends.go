package handlers

import (
	"encoding/json"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/models"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friend request HTTP requests
type FriendHandler struct {
	friendService *services.FriendshipService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendshipService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// SendRequestBody represents the request body for sending a friend request
type SendRequestBody struct {
	ReceiverID string `json:"receiver_id"`
}

// SendRequest handles POST /api/v1/friends/requests
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body SendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := h.friendService.SendRequest(r.Context(), userID, body.ReceiverID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("receiver_id", body.ReceiverID).
			Msg("Failed to send friend request")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("receiver_id", body.ReceiverID).
		Str("request_id", req.ID).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, req)
}

// RespondBody represents the request body for responding to a friend request
type RespondBody struct {
	Decision models.FriendStatus `json:"decision"`
}

// Respond handles POST /api/v1/friends/requests/{request_id}/respond
func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID := chi.URLParam(r, "request_id")

	var body RespondBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := h.friendService.Respond(r.Context(), userID, requestID, body.Decision)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("request_id", requestID).
			Msg("Failed to respond to friend request")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("request_id", requestID).
		Str("decision", string(body.Decision)).
		Msg("Friend request resolved")

	respondJSON(w, http.StatusOK, req)
}

// Pending handles GET /api/v1/friends/requests
func (h *FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	requests, err := h.friendService.PendingFor(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list pending requests")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// List handles GET /api/v1/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	peers, err := h.friendService.Peers(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": peers})
}

// Status handles GET /api/v1/friends/status/{user_id}
func (h *FriendHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := chi.URLParam(r, "user_id")

	status, err := h.friendService.Status(r.Context(), userID, otherID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("other_id", otherID).
			Msg("Failed to check friendship status")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
