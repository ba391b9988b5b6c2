package handlers

import (
	"encoding/json"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// StudyGroupHandler handles study group HTTP requests
type StudyGroupHandler struct {
	groupService *services.StudyGroupService
}

// NewStudyGroupHandler creates a new study group handler
func NewStudyGroupHandler(groupService *services.StudyGroupService) *StudyGroupHandler {
	return &StudyGroupHandler{
		groupService: groupService,
	}
}

// List handles GET /api/v1/study-groups
func (h *StudyGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := h.groupService.List(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list study groups")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// Create handles POST /api/v1/study-groups
func (h *StudyGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var in services.StudyGroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, in)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create study group")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("group_id", group.ID).Msg("Study group created")

	respondJSON(w, http.StatusCreated, group)
}

// Join handles POST /api/v1/study-groups/{group_id}/join
func (h *StudyGroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "group_id")

	if err := h.groupService.Join(r.Context(), userID, groupID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("group_id", groupID).
			Msg("Failed to join study group")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave handles DELETE /api/v1/study-groups/{group_id}/leave
func (h *StudyGroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "group_id")

	if err := h.groupService.Leave(r.Context(), userID, groupID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("group_id", groupID).
			Msg("Failed to leave study group")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Members handles GET /api/v1/study-groups/{group_id}/members
func (h *StudyGroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	members, err := h.groupService.Members(r.Context(), groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to list group members")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// Delete handles DELETE /api/v1/admin/study-groups/{group_id}
func (h *StudyGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	if err := h.groupService.Delete(r.Context(), groupID); err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("Failed to delete study group")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
