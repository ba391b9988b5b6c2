package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"campus-hub-backend/internal/models"

	"github.com/google/uuid"
)

// ResourceStore is the persistence surface the resource service needs
type ResourceStore interface {
	Create(ctx context.Context, res *models.Resource) error
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	ListByStatus(ctx context.Context, status models.ResourceStatus) ([]*models.Resource, error)
	UpdateStatus(ctx context.Context, id string, status models.ResourceStatus) error
	Delete(ctx context.Context, id string) error
}

// ResourceService handles the shared-file marketplace with admin moderation
type ResourceService struct {
	store   ResourceStore
	storage Uploader
	now     func() time.Time
}

// NewResourceService creates a new resource service
func NewResourceService(store ResourceStore, storage Uploader) *ResourceService {
	return &ResourceService{
		store:   store,
		storage: storage,
		now:     time.Now,
	}
}

// ListApproved returns all approved resources, newest first
func (s *ResourceService) ListApproved(ctx context.Context) ([]*models.Resource, error) {
	return s.store.ListByStatus(ctx, models.ResourceStatusApproved)
}

// ListPending returns resources awaiting moderation
func (s *ResourceService) ListPending(ctx context.Context) ([]*models.Resource, error) {
	return s.store.ListByStatus(ctx, models.ResourceStatusPending)
}

// ResourceInput carries the metadata for an uploaded resource
type ResourceInput struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload stores the file in object storage and creates a resource record.
// Uploads by admins are approved immediately; everything else waits for
// moderation.
func (s *ResourceService) Upload(ctx context.Context, userID string, isAdmin bool, in ResourceInput) (*models.Resource, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title required", models.ErrValidation)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file required", models.ErrValidation)
	}

	id := uuid.New().String()
	key := fmt.Sprintf("resources/%s/%s%s", userID, id, path.Ext(in.Filename))
	url, err := s.storage.Upload(ctx, key, in.ContentType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload resource: %w", err)
	}

	status := models.ResourceStatusPending
	if isAdmin {
		status = models.ResourceStatusApproved
	}

	res := &models.Resource{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		FileURL:     url,
		Status:      status,
		UploadedBy:  userID,
		CreatedAt:   s.now(),
	}

	if err := s.store.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// Approve marks a pending resource as approved
func (s *ResourceService) Approve(ctx context.Context, id string) error {
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status == models.ResourceStatusApproved {
		return fmt.Errorf("%w: resource already approved", models.ErrConflict)
	}
	return s.store.UpdateStatus(ctx, id, models.ResourceStatusApproved)
}

// Delete deletes a resource
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
