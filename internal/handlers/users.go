package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxAvatarBytes = 5 << 20

// UserHandler handles auth and profile HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// AuthResponse carries a profile with its session token
type AuthResponse struct {
	Profile interface{} `json:"profile"`
	Token   string      `json:"token"`
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.userService.Register(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", profile.ID).Msg("User registered")

	respondJSON(w, http.StatusCreated, AuthResponse{Profile: profile, Token: token})
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{Profile: profile, Token: token})
}

// Me handles GET /api/v1/profiles/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get profile")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /api/v1/profiles/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var update services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UploadAvatar handles POST /api/v1/profiles/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		respondError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	url, err := h.userService.UploadAvatar(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload avatar")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Avatar uploaded")

	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

// Suggestions handles GET /api/v1/profiles/suggestions
func (h *UserHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profiles, err := h.userService.Suggestions(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get suggestions")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": profiles})
}
