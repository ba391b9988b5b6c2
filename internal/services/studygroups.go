package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-hub-backend/internal/models"

	"github.com/google/uuid"
)

// StudyGroupStore is the persistence surface the study group service needs
type StudyGroupStore interface {
	Create(ctx context.Context, g *models.StudyGroup) error
	GetByID(ctx context.Context, id string) (*models.StudyGroup, error)
	List(ctx context.Context, userID string) ([]*models.StudyGroup, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	Members(ctx context.Context, groupID string) ([]*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// StudyGroupService handles study group membership
type StudyGroupService struct {
	store StudyGroupStore
	now   func() time.Time
}

// NewStudyGroupService creates a new study group service
func NewStudyGroupService(store StudyGroupStore) *StudyGroupService {
	return &StudyGroupService{
		store: store,
		now:   time.Now,
	}
}

// List returns all study groups with member counts and the user's joined flag
func (s *StudyGroupService) List(ctx context.Context, userID string) ([]*models.StudyGroup, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.store.List(ctx, userID)
}

// StudyGroupInput carries the fields for creating a study group
type StudyGroupInput struct {
	Name        string `json:"name"`
	Course      string `json:"course"`
	Description string `json:"description"`
}

// Create creates a new study group; the creator joins it immediately
func (s *StudyGroupService) Create(ctx context.Context, userID string, in StudyGroupInput) (*models.StudyGroup, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", models.ErrValidation)
	}
	if strings.TrimSpace(in.Course) == "" {
		return nil, fmt.Errorf("%w: course required", models.ErrValidation)
	}

	g := &models.StudyGroup{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Course:      strings.TrimSpace(in.Course),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   userID,
		CreatedAt:   s.now(),
	}

	if err := s.store.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create study group: %w", err)
	}

	if err := s.store.AddMember(ctx, g.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to join created group: %w", err)
	}

	g.MemberCount = 1
	g.Joined = true

	return g, nil
}

// Join adds the user to a study group
func (s *StudyGroupService) Join(ctx context.Context, userID, groupID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}

	if _, err := s.store.GetByID(ctx, groupID); err != nil {
		return err
	}

	return s.store.AddMember(ctx, groupID, userID)
}

// Leave removes the user from a study group
func (s *StudyGroupService) Leave(ctx context.Context, userID, groupID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	return s.store.RemoveMember(ctx, groupID, userID)
}

// Members returns the member profiles of a study group
func (s *StudyGroupService) Members(ctx context.Context, groupID string) ([]*models.Profile, error) {
	if _, err := s.store.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.Members(ctx, groupID)
}

// Delete deletes a study group
func (s *StudyGroupService) Delete(ctx context.Context, groupID string) error {
	return s.store.Delete(ctx, groupID)
}
