package handlers

import (
	"encoding/json"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AnnouncementHandler handles announcement HTTP requests
type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(announcementService *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
	}
}

// List handles GET /api/v1/announcements
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	announcements, err := h.announcementService.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list announcements")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"announcements": announcements})
}

// Create handles POST /api/v1/admin/announcements
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var in services.AnnouncementInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.announcementService.Create(r.Context(), userID, in)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create announcement")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("announcement_id", a.ID).Msg("Announcement created")

	respondJSON(w, http.StatusCreated, a)
}

// Update handles PATCH /api/v1/admin/announcements/{announcement_id}
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "announcement_id")

	var in services.AnnouncementInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.announcementService.Update(r.Context(), id, in)
	if err != nil {
		log.Error().Err(err).Str("announcement_id", id).Msg("Failed to update announcement")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/v1/admin/announcements/{announcement_id}
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "announcement_id")

	if err := h.announcementService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("announcement_id", id).Msg("Failed to delete announcement")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
