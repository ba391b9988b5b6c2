package services

import (
	"context"
	"testing"

	"campus-hub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCampus is a shared in-memory backend for end-to-end scenarios spanning
// the friendship, message, and conversation services.
type memCampus struct {
	profiles map[string]*models.Profile
	requests []*models.FriendRequest
	messages []*models.Message
}

func newMemCampus(profiles ...*models.Profile) *memCampus {
	m := &memCampus{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func pairMatch(a, b *models.FriendRequest) bool {
	return (a.SenderID == b.SenderID && a.ReceiverID == b.ReceiverID) ||
		(a.SenderID == b.ReceiverID && a.ReceiverID == b.SenderID)
}

func (m *memCampus) Create(ctx context.Context, req *models.FriendRequest) error {
	m.requests = append(m.requests, req)
	return nil
}

func (m *memCampus) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	for _, req := range m.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memCampus) Resolve(ctx context.Context, requestID, receiverID string, status models.FriendStatus) (bool, error) {
	for _, req := range m.requests {
		if req.ID == requestID && req.ReceiverID == receiverID && req.Status == models.FriendStatusPending {
			req.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memCampus) LatestBetween(ctx context.Context, userID, otherID string) (*models.FriendRequest, error) {
	probe := &models.FriendRequest{SenderID: userID, ReceiverID: otherID}
	var latest *models.FriendRequest
	for _, req := range m.requests {
		if !pairMatch(req, probe) {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	return latest, nil
}

func (m *memCampus) ActiveBetween(ctx context.Context, userID, otherID string) (bool, error) {
	probe := &models.FriendRequest{SenderID: userID, ReceiverID: otherID}
	for _, req := range m.requests {
		if pairMatch(req, probe) && req.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCampus) PendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	var out []*models.FriendRequest
	for _, req := range m.requests {
		if req.ReceiverID == userID && req.Status == models.FriendStatusPending {
			cp := *req
			cp.Sender = m.profiles[req.SenderID]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCampus) AcceptedPeers(ctx context.Context, userID string) ([]*models.Profile, error) {
	var out []*models.Profile
	for _, req := range m.requests {
		if req.Status != models.FriendStatusAccepted {
			continue
		}
		switch userID {
		case req.SenderID:
			out = append(out, m.profiles[req.ReceiverID])
		case req.ReceiverID:
			out = append(out, m.profiles[req.SenderID])
		}
	}
	return out, nil
}

func (m *memCampus) CreateMessage(msg *models.Message) { m.messages = append(m.messages, msg) }

func (m *memCampus) Transcript(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.ReceiverID == peerID) ||
			(msg.SenderID == peerID && msg.ReceiverID == userID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memCampus) MarkRead(ctx context.Context, peerID, userID string) (int64, error) {
	var n int64
	for _, msg := range m.messages {
		if msg.SenderID == peerID && msg.ReceiverID == userID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memCampus) LastBetween(ctx context.Context, userID, peerID string) (*models.Message, error) {
	var last *models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.ReceiverID == peerID) ||
			(msg.SenderID == peerID && msg.ReceiverID == userID) {
			if last == nil || !msg.CreatedAt.Before(last.CreatedAt) {
				last = msg
			}
		}
	}
	return last, nil
}

// memProfiles exposes memCampus's profile map as a profile getter; the
// method can't live on memCampus because GetByID is taken by the friendship
// store surface.
type memProfiles struct{ m *memCampus }

func (p memProfiles) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if prof, ok := p.m.profiles[id]; ok {
		return prof, nil
	}
	return nil, models.ErrNotFound
}

// messageStoreAdapter narrows memCampus to the message store surface, since
// Create is already taken by the friendship store on the same struct.
type messageStoreAdapter struct{ *memCampus }

func (a messageStoreAdapter) Create(ctx context.Context, msg *models.Message) error {
	a.CreateMessage(msg)
	return nil
}

func TestFriendThenMessageScenario(t *testing.T) {
	ctx := context.Background()
	mem := newMemCampus(
		&models.Profile{ID: "alice", FullName: "Alice"},
		&models.Profile{ID: "bob", FullName: "Bob"},
	)

	friends := NewFriendshipService(mem, memProfiles{mem}, &stubBus{})
	messages := NewMessageService(messageStoreAdapter{mem}, friends, &stubUploader{}, &stubBus{})
	conversations := NewConversationService(mem, mem, testRetry)

	// Alice requests, both sides see pending.
	req, err := friends.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	status, err := friends.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusPending, status)

	status, err = friends.Status(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusPending, status)

	pending, err := friends.PendingFor(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Alice", pending[0].Sender.FullName)

	// A second request while one is pending is rejected.
	_, err = friends.SendRequest(ctx, "bob", "alice")
	assert.ErrorIs(t, err, models.ErrConflict)

	// Messaging before acceptance is blocked.
	_, err = messages.Send(ctx, "alice", "bob", "too soon", nil, "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	// Bob accepts; each appears in the other's peer list.
	_, err = friends.Respond(ctx, "bob", req.ID, models.FriendStatusAccepted)
	require.NoError(t, err)

	peers, err := friends.Peers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "bob", peers[0].ID)

	peers, err = friends.Peers(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "alice", peers[0].ID)

	// Responding again never reopens or flips the record.
	_, err = friends.Respond(ctx, "bob", req.ID, models.FriendStatusRejected)
	assert.ErrorIs(t, err, models.ErrConflict)
	status, err = friends.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusAccepted, status)

	// Alice messages Bob; his list shows the preview, unread.
	sent, err := messages.Send(ctx, "alice", "bob", "hey bob", nil, "tag-1")
	require.NoError(t, err)
	assert.False(t, sent.Read)

	list, err := conversations.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].PeerID)
	assert.Equal(t, "hey bob", list[0].LastMessage)
	assert.True(t, list[0].Unread)

	// The sender's own list never shows unread.
	list, err = conversations.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Unread)

	// Opening the conversation flips read state and clears the flag.
	transcript, err := messages.Open(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.True(t, transcript[0].Read)

	list, err = conversations.List(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, list[0].Unread)
}

func TestRejectedRequestScenario(t *testing.T) {
	ctx := context.Background()
	mem := newMemCampus(
		&models.Profile{ID: "alice", FullName: "Alice"},
		&models.Profile{ID: "bob", FullName: "Bob"},
	)
	friends := NewFriendshipService(mem, memProfiles{mem}, &stubBus{})

	req, err := friends.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = friends.Respond(ctx, "bob", req.ID, models.FriendStatusRejected)
	require.NoError(t, err)

	status, err := friends.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusRejected, status)

	peers, err := friends.Peers(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, peers)

	// A rejected record does not block a fresh attempt.
	later, err := friends.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, later.ID)
}
