package repository

import (
	"context"
	"errors"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudyGroupRepository handles database operations for study groups
type StudyGroupRepository struct {
	db *pgxpool.Pool
}

// NewStudyGroupRepository creates a new study group repository
func NewStudyGroupRepository(db *pgxpool.Pool) *StudyGroupRepository {
	return &StudyGroupRepository{db: db}
}

// Create creates a new study group
func (r *StudyGroupRepository) Create(ctx context.Context, g *models.StudyGroup) error {
	query := `
		INSERT INTO study_groups (id, name, course, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, g.ID, g.Name, g.Course, g.Description, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return dbErr("failed to create study group", err)
	}
	return nil
}

// GetByID retrieves a study group by ID
func (r *StudyGroupRepository) GetByID(ctx context.Context, id string) (*models.StudyGroup, error) {
	query := `
		SELECT id, name, course, description, created_by, created_at
		FROM study_groups
		WHERE id = $1
	`
	var g models.StudyGroup
	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Course, &g.Description, &g.CreatedBy, &g.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get study group", err)
	}
	return &g, nil
}

// List retrieves all study groups with member counts and whether the given
// user already joined each one
func (r *StudyGroupRepository) List(ctx context.Context, userID string) ([]*models.StudyGroup, error) {
	query := `
		SELECT g.id, g.name, g.course, g.description, g.created_by, g.created_at,
		       COUNT(m.user_id) AS member_count,
		       BOOL_OR(m.user_id = $1) AS joined
		FROM study_groups g
		LEFT JOIN study_group_members m ON m.group_id = g.id
		GROUP BY g.id, g.name, g.course, g.description, g.created_by, g.created_at
		ORDER BY g.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dbErr("failed to list study groups", err)
	}
	defer rows.Close()

	var out []*models.StudyGroup
	for rows.Next() {
		var g models.StudyGroup
		var joined *bool
		err := rows.Scan(
			&g.ID, &g.Name, &g.Course, &g.Description, &g.CreatedBy, &g.CreatedAt,
			&g.MemberCount, &joined,
		)
		if err != nil {
			return nil, dbErr("failed to scan study group", err)
		}
		if joined != nil {
			g.Joined = *joined
		}
		out = append(out, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating study groups", err)
	}

	return out, nil
}

// AddMember adds a user to a study group. A duplicate join maps to
// models.ErrConflict via the primary key on (group_id, user_id).
func (r *StudyGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `
		INSERT INTO study_group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, now())
	`
	_, err := r.db.Exec(ctx, query, groupID, userID)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return models.ErrConflict
		}
		return dbErr("failed to add group member", err)
	}
	return nil
}

// RemoveMember removes a user from a study group
func (r *StudyGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM study_group_members WHERE group_id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, groupID, userID)
	if err != nil {
		return dbErr("failed to remove group member", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Members retrieves the member profiles of a study group
func (r *StudyGroupRepository) Members(ctx context.Context, groupID string) ([]*models.Profile, error) {
	query := `
		SELECT p.id, p.full_name, p.avatar_url, p.field_of_study, p.year
		FROM study_group_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, dbErr("failed to list group members", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.FieldOfStudy, &p.Year); err != nil {
			return nil, dbErr("failed to scan group member", err)
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating group members", err)
	}

	return out, nil
}

// Delete deletes a study group and its memberships
func (r *StudyGroupRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM study_groups WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return dbErr("failed to delete study group", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
