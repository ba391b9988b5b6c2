package repository

import (
	"context"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceRepository handles database operations for marketplace resources
type ResourceRepository struct {
	db *pgxpool.Pool
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create creates a new resource
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	query := `
		INSERT INTO resources (id, title, description, file_url, status, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		res.ID, res.Title, res.Description, res.FileURL, res.Status, res.UploadedBy, res.CreatedAt,
	)
	if err != nil {
		return dbErr("failed to create resource", err)
	}
	return nil
}

// GetByID retrieves a resource by ID
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `
		SELECT id, title, description, file_url, status, uploaded_by, created_at
		FROM resources
		WHERE id = $1
	`
	var res models.Resource
	err := r.db.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.Title, &res.Description, &res.FileURL, &res.Status, &res.UploadedBy, &res.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get resource", err)
	}
	return &res, nil
}

// ListByStatus retrieves resources in the given moderation state, newest first
func (r *ResourceRepository) ListByStatus(ctx context.Context, status models.ResourceStatus) ([]*models.Resource, error) {
	query := `
		SELECT id, title, description, file_url, status, uploaded_by, created_at
		FROM resources
		WHERE status = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, dbErr("failed to list resources", err)
	}
	defer rows.Close()

	var out []*models.Resource
	for rows.Next() {
		var res models.Resource
		err := rows.Scan(
			&res.ID, &res.Title, &res.Description, &res.FileURL, &res.Status, &res.UploadedBy, &res.CreatedAt,
		)
		if err != nil {
			return nil, dbErr("failed to scan resource", err)
		}
		out = append(out, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating resources", err)
	}

	return out, nil
}

// UpdateStatus changes the moderation state of a resource
func (r *ResourceRepository) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus) error {
	query := `UPDATE resources SET status = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return dbErr("failed to update resource status", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a resource by ID
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM resources WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return dbErr("failed to delete resource", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
