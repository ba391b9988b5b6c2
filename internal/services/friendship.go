package services

import (
	"context"
	"fmt"
	"time"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FriendshipStore is the persistence surface the friendship service needs
type FriendshipStore interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	Resolve(ctx context.Context, requestID, receiverID string, status models.FriendStatus) (bool, error)
	LatestBetween(ctx context.Context, userID, otherID string) (*models.FriendRequest, error)
	ActiveBetween(ctx context.Context, userID, otherID string) (bool, error)
	PendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error)
	AcceptedPeers(ctx context.Context, userID string) ([]*models.Profile, error)
}

// EventPublisher sends row-change notifications to the realtime gateway
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evt events.Event) error
}

// ProfileGetter loads a profile so notifications carry displayable sender data
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// FriendshipService drives the relationship state machine between users.
// Records are stored directionally (sender, receiver) but the relationship is
// symmetric once accepted; every both-orderings lookup is normalized here and
// nowhere else.
type FriendshipService struct {
	store    FriendshipStore
	profiles ProfileGetter
	bus      EventPublisher
	now      func() time.Time
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(store FriendshipStore, profiles ProfileGetter, bus EventPublisher) *FriendshipService {
	return &FriendshipService{
		store:    store,
		profiles: profiles,
		bus:      bus,
		now:      time.Now,
	}
}

// SendRequest creates a pending relationship record from sender to receiver.
// The duplicate check is an application-level pre-check over both orderings;
// concurrent duplicates are tolerated downstream by most-recent-wins reads.
func (s *FriendshipService) SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == "" {
		return nil, models.ErrUnauthenticated
	}
	if receiverID == "" {
		return nil, fmt.Errorf("%w: receiver required", models.ErrValidation)
	}
	if receiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", models.ErrValidation)
	}

	active, err := s.store.ActiveBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if active {
		return nil, fmt.Errorf("%w: duplicate request", models.ErrConflict)
	}

	req := &models.FriendRequest{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendStatusPending,
		CreatedAt:  s.now(),
	}

	if err := s.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	// The receiver's pending list renders the sender's name and avatar, so
	// the pushed record must carry the profile without a second lookup.
	if sender, err := s.profiles.GetByID(ctx, senderID); err != nil {
		log.Warn().Err(err).Str("user_id", senderID).Msg("Failed to load sender profile for notification")
	} else {
		p := *sender
		p.Email = ""
		p.PasswordHash = ""
		req.Sender = &p
	}

	s.publish(ctx, events.OpInsert, req)

	return req, nil
}

// Respond resolves a pending request. Only the receiver may respond, and an
// already resolved record is never flipped back.
func (s *FriendshipService) Respond(ctx context.Context, callerID, requestID string, decision models.FriendStatus) (*models.FriendRequest, error) {
	if callerID == "" {
		return nil, models.ErrUnauthenticated
	}
	if decision != models.FriendStatusAccepted && decision != models.FriendStatusRejected {
		return nil, fmt.Errorf("%w: decision must be accepted or rejected", models.ErrValidation)
	}

	changed, err := s.store.Resolve(ctx, requestID, callerID, decision)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve friend request: %w", err)
	}
	if !changed {
		// Distinguish missing, not-the-receiver, and already-resolved.
		req, err := s.store.GetByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if req.ReceiverID != callerID {
			return nil, models.ErrForbidden
		}
		return nil, fmt.Errorf("%w: request already resolved", models.ErrConflict)
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OpUpdate, req)

	return req, nil
}

// Status returns the relationship status between two users, taking the most
// recent record in either direction, or none when no record exists
func (s *FriendshipService) Status(ctx context.Context, userID, otherID string) (models.FriendStatus, error) {
	if userID == "" {
		return models.FriendStatusNone, models.ErrUnauthenticated
	}

	req, err := s.store.LatestBetween(ctx, userID, otherID)
	if err != nil {
		return models.FriendStatusNone, err
	}
	if req == nil {
		return models.FriendStatusNone, nil
	}
	return req.Status, nil
}

// PendingFor returns pending requests addressed to the user, newest first
func (s *FriendshipService) PendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.store.PendingFor(ctx, userID)
}

// Peers returns the profiles of every accepted relationship of the user
func (s *FriendshipService) Peers(ctx context.Context, userID string) ([]*models.Profile, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.store.AcceptedPeers(ctx, userID)
}

// publish notifies both parties of a row change. The record is already
// committed, so a failed notification is logged and dropped.
func (s *FriendshipService) publish(ctx context.Context, op events.Op, req *models.FriendRequest) {
	evt := events.Event{
		Op:      op,
		UserIDs: []string{req.SenderID, req.ReceiverID},
		Request: req,
	}
	if err := s.bus.Publish(ctx, events.TopicFriendRequests, evt); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("Failed to publish friend request event")
	}
}
