package repository

import (
	"context"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create creates a new profile
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, password_hash, full_name, avatar_url, field_of_study, year, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.AvatarURL, p.FieldOfStudy, p.Year, p.IsAdmin, p.CreatedAt,
	)
	if err != nil {
		return dbErr("failed to create profile", err)
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, email, password_hash, full_name, avatar_url, field_of_study, year, is_admin, created_at
		FROM profiles
		WHERE id = $1
	`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.AvatarURL, &p.FieldOfStudy, &p.Year, &p.IsAdmin, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get profile", err)
	}
	return &p, nil
}

// GetByEmail retrieves a profile by email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `
		SELECT id, email, password_hash, full_name, avatar_url, field_of_study, year, is_admin, created_at
		FROM profiles
		WHERE email = $1
	`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, email).Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.AvatarURL, &p.FieldOfStudy, &p.Year, &p.IsAdmin, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get profile by email", err)
	}
	return &p, nil
}

// EmailExists checks if an email is already registered
func (r *ProfileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE email = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, dbErr("failed to check email existence", err)
	}
	return exists, nil
}

// Update updates the mutable profile fields
func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, field_of_study = $2, year = $3
		WHERE id = $4
	`
	result, err := r.db.Exec(ctx, query, p.FullName, p.FieldOfStudy, p.Year, p.ID)
	if err != nil {
		return dbErr("failed to update profile", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateAvatarURL updates the avatar URL for a profile
func (r *ProfileRepository) UpdateAvatarURL(ctx context.Context, id, avatarURL string) error {
	query := `UPDATE profiles SET avatar_url = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, avatarURL, id)
	if err != nil {
		return dbErr("failed to update avatar url", err)
	}
	return nil
}

// ListExcluding retrieves all profiles except the given user and the listed ids
func (r *ProfileRepository) ListExcluding(ctx context.Context, userID string, excludeIDs []string) ([]*models.Profile, error) {
	query := `
		SELECT id, email, password_hash, full_name, avatar_url, field_of_study, year, is_admin, created_at
		FROM profiles
		WHERE id <> $1 AND NOT (id = ANY($2))
		ORDER BY full_name ASC
	`
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := r.db.Query(ctx, query, userID, excludeIDs)
	if err != nil {
		return nil, dbErr("failed to list profiles", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		var p models.Profile
		err := rows.Scan(
			&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.AvatarURL, &p.FieldOfStudy, &p.Year, &p.IsAdmin, &p.CreatedAt,
		)
		if err != nil {
			return nil, dbErr("failed to scan profile", err)
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating profiles", err)
	}

	return out, nil
}
