package handlers

import (
	"io"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxResourceBytes = 50 << 20

// ResourceHandler handles marketplace resource HTTP requests
type ResourceHandler struct {
	resourceService *services.ResourceService
	userService     *services.UserService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resourceService *services.ResourceService, userService *services.UserService) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		userService:     userService,
	}
}

// List handles GET /api/v1/resources
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.ListApproved(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list resources")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

// ListPending handles GET /api/v1/admin/resources
func (h *ResourceHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.ListPending(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pending resources")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

// Upload handles POST /api/v1/resources
func (h *ResourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxResourceBytes); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResourceBytes))
	if err != nil {
		respondError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	isAdmin, err := h.userService.IsAdmin(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to check admin flag")
		respondServiceError(w, err)
		return
	}

	res, err := h.resourceService.Upload(r.Context(), userID, isAdmin, services.ResourceInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload resource")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("resource_id", res.ID).Msg("Resource uploaded")

	respondJSON(w, http.StatusCreated, res)
}

// Approve handles POST /api/v1/admin/resources/{resource_id}/approve
func (h *ResourceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "resource_id")

	if err := h.resourceService.Approve(r.Context(), resourceID); err != nil {
		log.Error().Err(err).Str("resource_id", resourceID).Msg("Failed to approve resource")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/admin/resources/{resource_id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "resource_id")

	if err := h.resourceService.Delete(r.Context(), resourceID); err != nil {
		log.Error().Err(err).Str("resource_id", resourceID).Msg("Failed to delete resource")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
