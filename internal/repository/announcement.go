package repository

import (
	"context"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnnouncementRepository handles database operations for announcements
type AnnouncementRepository struct {
	db *pgxpool.Pool
}

// NewAnnouncementRepository creates a new announcement repository
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create creates a new announcement
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	query := `
		INSERT INTO announcements (id, title, content, category, audience, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.Title, a.Content, a.Category, a.Audience, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return dbErr("failed to create announcement", err)
	}
	return nil
}

// GetByID retrieves an announcement by ID
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `
		SELECT id, title, content, category, audience, created_by, created_at
		FROM announcements
		WHERE id = $1
	`
	var a models.Announcement
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Content, &a.Category, &a.Audience, &a.CreatedBy, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get announcement", err)
	}
	return &a, nil
}

// ListVisible retrieves announcements addressed to everyone plus those scoped
// to a study group the user belongs to, newest first
func (r *AnnouncementRepository) ListVisible(ctx context.Context, userID string) ([]*models.Announcement, error) {
	query := `
		SELECT a.id, a.title, a.content, a.category, a.audience, a.created_by, a.created_at
		FROM announcements a
		WHERE a.audience = 'all'
		   OR a.audience IN (SELECT group_id FROM study_group_members WHERE user_id = $1)
		ORDER BY a.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dbErr("failed to list announcements", err)
	}
	defer rows.Close()

	var out []*models.Announcement
	for rows.Next() {
		var a models.Announcement
		err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &a.Audience, &a.CreatedBy, &a.CreatedAt)
		if err != nil {
			return nil, dbErr("failed to scan announcement", err)
		}
		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating announcements", err)
	}

	return out, nil
}

// Update updates the editable announcement fields
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	query := `
		UPDATE announcements
		SET title = $1, content = $2, category = $3, audience = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query, a.Title, a.Content, a.Category, a.Audience, a.ID)
	if err != nil {
		return dbErr("failed to update announcement", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes an announcement by ID
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM announcements WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return dbErr("failed to delete announcement", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
