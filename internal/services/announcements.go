package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AnnouncementStore is the persistence surface the announcement service needs
type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) error
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	ListVisible(ctx context.Context, userID string) ([]*models.Announcement, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles campus and group announcements
type AnnouncementService struct {
	store AnnouncementStore
	bus   EventPublisher
	now   func() time.Time
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(store AnnouncementStore, bus EventPublisher) *AnnouncementService {
	return &AnnouncementService{
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// List returns the announcements visible to the user: campus-wide ones plus
// those scoped to a study group the user belongs to
func (s *AnnouncementService) List(ctx context.Context, userID string) ([]*models.Announcement, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.store.ListVisible(ctx, userID)
}

// AnnouncementInput carries the editable announcement fields
type AnnouncementInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Audience string `json:"audience"`
}

func (in *AnnouncementInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", models.ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content required", models.ErrValidation)
	}
	return nil
}

// Create creates a new announcement
func (s *AnnouncementService) Create(ctx context.Context, createdBy string, in AnnouncementInput) (*models.Announcement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	audience := in.Audience
	if audience == "" {
		audience = models.AudienceAll
	}

	a := &models.Announcement{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Category:  in.Category,
		Audience:  audience,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}

	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	s.publish(ctx, events.OpInsert, a)

	return a, nil
}

// Update updates an existing announcement
func (s *AnnouncementService) Update(ctx context.Context, id string, in AnnouncementInput) (*models.Announcement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Title = strings.TrimSpace(in.Title)
	a.Content = strings.TrimSpace(in.Content)
	a.Category = in.Category
	if in.Audience != "" {
		a.Audience = in.Audience
	}

	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, events.OpUpdate, a)

	return a, nil
}

// Delete deletes an announcement
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.OpDelete, a)

	return nil
}

// publish broadcasts an announcement change. Announcements are rare enough
// that clients simply re-query on notification.
func (s *AnnouncementService) publish(ctx context.Context, op events.Op, a *models.Announcement) {
	evt := events.Event{
		Op:           op,
		Announcement: a,
	}
	if err := s.bus.Publish(ctx, events.TopicAnnouncements, evt); err != nil {
		log.Error().Err(err).Str("announcement_id", a.ID).Msg("Failed to publish announcement event")
	}
}
