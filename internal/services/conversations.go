package services

import (
	"context"
	"fmt"
	"sort"

	"campus-hub-backend/internal/models"
	"campus-hub-backend/internal/retry"

	"golang.org/x/sync/errgroup"
)

// EmptyConversationPreview is shown for an accepted peer with no messages yet.
const EmptyConversationPreview = "Start a conversation"

// PeerLister returns the accepted peers of a user
type PeerLister interface {
	AcceptedPeers(ctx context.Context, userID string) ([]*models.Profile, error)
}

// LastMessageStore returns the newest message of a conversation
type LastMessageStore interface {
	LastBetween(ctx context.Context, userID, peerID string) (*models.Message, error)
}

// ConversationService builds the ranked conversation list for a user: one
// summary per accepted peer, carrying the latest message preview and an
// unread flag.
type ConversationService struct {
	friends  PeerLister
	messages LastMessageStore
	retry    retry.Policy
}

// NewConversationService creates a new conversation service
func NewConversationService(friends PeerLister, messages LastMessageStore, retryPolicy retry.Policy) *ConversationService {
	return &ConversationService{
		friends:  friends,
		messages: messages,
		retry:    retryPolicy,
	}
}

// List builds the conversation list for a user. The per-peer last-message
// lookups run concurrently and may complete in any order; results are
// index-addressed so completion order does not matter.
func (s *ConversationService) List(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	var peers []*models.Profile
	err := retry.Do(ctx, s.retry, func() error {
		var err error
		peers, err = s.friends.AcceptedPeers(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list peers: %w", err)
	}

	summaries := make([]models.ConversationSummary, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			var last *models.Message
			err := retry.Do(gctx, s.retry, func() error {
				var err error
				last, err = s.messages.LastBetween(gctx, userID, peer.ID)
				return err
			})
			if err != nil {
				return err
			}

			summary := models.ConversationSummary{
				PeerID:        peer.ID,
				PeerName:      peer.FullName,
				PeerAvatarURL: peer.AvatarURL,
				LastMessage:   EmptyConversationPreview,
			}
			if last != nil {
				summary.LastMessage = last.Content
				summary.LastMessageAt = last.CreatedAt
				summary.Unread = last.ReceiverID == userID && !last.Read
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch last messages: %w", err)
	}

	sortSummaries(summaries)

	return summaries, nil
}

// sortSummaries orders most recently touched conversations first; peers
// without any message yet sort last, keeping their relative order.
func sortSummaries(list []models.ConversationSummary) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastMessageAt.After(list[j].LastMessageAt)
	})
}
