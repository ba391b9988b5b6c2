package repository

import (
	"context"

	"campus-hub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendshipRepository handles database operations for friend requests
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create creates a new friend request
func (r *FriendshipRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt)
	if err != nil {
		return dbErr("failed to create friend request", err)
	}
	return nil
}

// GetByID retrieves a friend request by ID
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE id = $1
	`
	var req models.FriendRequest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, dbErr("failed to get friend request", err)
	}
	return &req, nil
}

// Resolve flips a pending request to the given resolved status. The update is
// guarded on receiver and pending status so it can never flip an already
// resolved record; it reports whether a row was changed.
func (r *FriendshipRepository) Resolve(ctx context.Context, requestID, receiverID string, status models.FriendStatus) (bool, error) {
	query := `
		UPDATE friend_requests
		SET status = $1
		WHERE id = $2 AND receiver_id = $3 AND status = 'pending'
	`
	result, err := r.db.Exec(ctx, query, status, requestID, receiverID)
	if err != nil {
		return false, dbErr("failed to resolve friend request", err)
	}
	return result.RowsAffected() > 0, nil
}

// LatestBetween retrieves the most recent record between two users in either
// direction, or nil when none exists. Duplicate records are tolerated by
// taking the newest one.
func (r *FriendshipRepository) LatestBetween(ctx context.Context, userID, otherID string) (*models.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`
	var req models.FriendRequest
	err := r.db.QueryRow(ctx, query, userID, otherID).Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, dbErr("failed to get latest request between users", err)
	}
	return &req, nil
}

// ActiveBetween checks whether a pending or accepted record exists between
// two users in either direction
func (r *FriendshipRepository) ActiveBetween(ctx context.Context, userID, otherID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
			  AND status IN ('pending', 'accepted')
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, otherID).Scan(&exists)
	if err != nil {
		return false, dbErr("failed to check active request", err)
	}
	return exists, nil
}

// PendingFor retrieves pending requests addressed to the user, newest first,
// with the sender profile joined for display
func (r *FriendshipRepository) PendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	query := `
		SELECT f.id, f.sender_id, f.receiver_id, f.status, f.created_at,
		       p.id, p.full_name, p.avatar_url, p.field_of_study, p.year
		FROM friend_requests f
		JOIN profiles p ON p.id = f.sender_id
		WHERE f.receiver_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dbErr("failed to list pending requests", err)
	}
	defer rows.Close()

	var out []*models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		var sender models.Profile
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt,
			&sender.ID, &sender.FullName, &sender.AvatarURL, &sender.FieldOfStudy, &sender.Year,
		)
		if err != nil {
			return nil, dbErr("failed to scan pending request", err)
		}
		req.Sender = &sender
		out = append(out, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating pending requests", err)
	}

	return out, nil
}

// AcceptedPeers retrieves the profiles of every user the given user has an
// accepted relationship with, normalizing the directional records to the
// other party
func (r *FriendshipRepository) AcceptedPeers(ctx context.Context, userID string) ([]*models.Profile, error) {
	query := `
		SELECT p.id, p.full_name, p.avatar_url, p.field_of_study, p.year
		FROM friend_requests f
		JOIN profiles p ON p.id = CASE
			WHEN f.sender_id = $1 THEN f.receiver_id
			ELSE f.sender_id
		END
		WHERE f.status = 'accepted' AND (f.sender_id = $1 OR f.receiver_id = $1)
		ORDER BY p.full_name ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dbErr("failed to list accepted peers", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.FieldOfStudy, &p.Year); err != nil {
			return nil, dbErr("failed to scan peer profile", err)
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating accepted peers", err)
	}

	return out, nil
}

// ActivePeerIDs retrieves the ids of every user with a pending or accepted
// record involving the given user, in either direction
func (r *FriendshipRepository) ActivePeerIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END
		FROM friend_requests
		WHERE (sender_id = $1 OR receiver_id = $1) AND status IN ('pending', 'accepted')
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, dbErr("failed to list active peer ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr("failed to scan peer id", err)
		}
		out = append(out, id)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("error iterating active peer ids", err)
	}

	return out, nil
}
