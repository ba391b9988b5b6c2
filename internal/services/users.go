package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"campus-hub-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const jwtExpDays = 30

// ProfileStore is the persistence surface the user service needs
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, p *models.Profile) error
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) error
	ListExcluding(ctx context.Context, userID string, excludeIDs []string) ([]*models.Profile, error)
}

// ActivePeerLister reports which users already have an active relationship
// with a given user, so suggestions can skip them
type ActivePeerLister interface {
	ActivePeerIDs(ctx context.Context, userID string) ([]string, error)
}

// Uploader stores bytes in object storage and returns a public URL
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// UserService handles registration, login, and profile management
type UserService struct {
	profiles    ProfileStore
	friendships ActivePeerLister
	storage     Uploader
	jwtSecret   string
	now         func() time.Time
}

// NewUserService creates a new user service
func NewUserService(profiles ProfileStore, friendships ActivePeerLister, storage Uploader, jwtSecret string) *UserService {
	return &UserService{
		profiles:    profiles,
		friendships: friendships,
		storage:     storage,
		jwtSecret:   jwtSecret,
		now:         time.Now,
	}
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	FieldOfStudy string `json:"field_of_study"`
	Year         int    `json:"year"`
}

// Register creates a new profile and returns it with a signed token
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: valid email required", models.ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, "", fmt.Errorf("%w: full name required", models.ErrValidation)
	}

	exists, err := s.profiles.EmailExists(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, "", fmt.Errorf("%w: email already registered", models.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		FieldOfStudy: strings.TrimSpace(req.FieldOfStudy),
		Year:         req.Year,
		CreatedAt:    s.now(),
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, "", fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, "", err
	}

	return profile, token, nil
}

// Login verifies credentials and returns the profile with a signed token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
		}
		return nil, "", fmt.Errorf("failed to get profile: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthenticated)
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, "", err
	}

	return profile, token, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     s.now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", models.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid token claims", models.ErrUnauthenticated)
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("%w: user_id not found in token", models.ErrUnauthenticated)
	}

	return userID, nil
}

// Get retrieves a profile by ID
func (s *UserService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// IsAdmin reports whether the user has the admin flag set
func (s *UserService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.IsAdmin, nil
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	FullName     string `json:"full_name"`
	FieldOfStudy string `json:"field_of_study"`
	Year         int    `json:"year"`
}

// UpdateProfile updates the editable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	if strings.TrimSpace(update.FullName) == "" {
		return nil, fmt.Errorf("%w: full name required", models.ErrValidation)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.FullName = strings.TrimSpace(update.FullName)
	profile.FieldOfStudy = strings.TrimSpace(update.FieldOfStudy)
	profile.Year = update.Year

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// UploadAvatar uploads an avatar image and stores its public URL
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", models.ErrValidation)
	}

	key := fmt.Sprintf("avatars/%s%s", userID, path.Ext(filename))
	url, err := s.storage.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.profiles.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}

	return url, nil
}

// Suggestions retrieves profiles the user could befriend, excluding anyone
// with an active relationship in either direction
func (s *UserService) Suggestions(ctx context.Context, userID string) ([]*models.Profile, error) {
	peerIDs, err := s.friendships.ActivePeerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active peers: %w", err)
	}

	profiles, err := s.profiles.ListExcluding(ctx, userID, peerIDs)
	if err != nil {
		return nil, err
	}

	// Strip credentials before the profiles leave the service.
	for _, p := range profiles {
		p.Email = ""
		p.PasswordHash = ""
	}

	return profiles, nil
}
