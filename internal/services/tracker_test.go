package services

import (
	"testing"
	"time"

	"campus-hub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackerWithPeers(userID string, peerIDs ...string) *Tracker {
	t := NewTracker(userID)
	list := make([]models.ConversationSummary, len(peerIDs))
	for i, id := range peerIDs {
		list[i] = models.ConversationSummary{PeerID: id, LastMessage: EmptyConversationPreview}
	}
	t.SetList(list)
	return t
}

func TestApplyMessagePatchesAndReorders(t *testing.T) {
	tr := trackerWithPeers("alice", "bob", "carol")

	res := tr.ApplyMessage(&models.Message{
		ID: "m1", SenderID: "carol", ReceiverID: "alice",
		Content: "lunch?", CreatedAt: time.Now(),
	})

	assert.False(t, res.Duplicate)
	assert.False(t, res.NeedRefetch)
	assert.False(t, res.AppendToOpen)
	require.NotNil(t, res.Patched)
	assert.Equal(t, "carol", res.Patched.PeerID)
	assert.Equal(t, "lunch?", res.Patched.LastMessage)
	assert.True(t, res.Patched.Unread)

	// Carol moved to the front; Bob kept his place behind her.
	list := tr.Snapshot()
	require.Len(t, list, 2)
	assert.Equal(t, "carol", list[0].PeerID)
	assert.Equal(t, "bob", list[1].PeerID)
}

func TestApplyMessageUnknownPeerNeedsRefetch(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")

	res := tr.ApplyMessage(&models.Message{
		ID: "m1", SenderID: "dave", ReceiverID: "alice",
		Content: "hi", CreatedAt: time.Now(),
	})

	assert.True(t, res.NeedRefetch)
	assert.Nil(t, res.Patched)
}

func TestApplyMessageDropsDuplicateByID(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")
	msg := &models.Message{ID: "m1", SenderID: "bob", ReceiverID: "alice", CreatedAt: time.Now()}

	first := tr.ApplyMessage(msg)
	assert.False(t, first.Duplicate)

	second := tr.ApplyMessage(msg)
	assert.True(t, second.Duplicate)
}

func TestNoteSentDropsEchoedNotification(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")

	sent := &models.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob",
		Content: "on my way", ClientTag: "tag-42", CreatedAt: time.Now(),
	}
	tr.NoteSent(sent)

	// The sender's own preview was patched without marking it unread.
	list := tr.Snapshot()
	assert.Equal(t, "on my way", list[0].LastMessage)
	assert.False(t, list[0].Unread)

	// The echoed bus notification is recognized and dropped.
	res := tr.ApplyMessage(sent)
	assert.True(t, res.Duplicate)
}

func TestReserveTagDropsEchoArrivingBeforeNoteSent(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")

	// The tag is reserved before the send is stored; the echo lands first.
	tr.ReserveTag("tag-9")
	res := tr.ApplyMessage(&models.Message{
		ID: "m-server", SenderID: "alice", ReceiverID: "bob",
		ClientTag: "tag-9", CreatedAt: time.Now(),
	})
	assert.True(t, res.Duplicate)

	// NoteSent afterwards still patches the sender's preview.
	tr.NoteSent(&models.Message{
		ID: "m-server", SenderID: "alice", ReceiverID: "bob",
		Content: "made it", ClientTag: "tag-9", CreatedAt: time.Now(),
	})
	assert.Equal(t, "made it", tr.Snapshot()[0].LastMessage)
}

func TestApplyMessageDropsDuplicateByClientTag(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")

	tr.NoteSent(&models.Message{
		ID: "local-tmp", SenderID: "alice", ReceiverID: "bob",
		ClientTag: "tag-7", CreatedAt: time.Now(),
	})

	// The echo carries the server-assigned id but the same client tag.
	res := tr.ApplyMessage(&models.Message{
		ID: "m-server", SenderID: "alice", ReceiverID: "bob",
		ClientTag: "tag-7", CreatedAt: time.Now(),
	})
	assert.True(t, res.Duplicate)
}

func TestApplyMessageToOpenConversation(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")
	tr.OpenConversation("bob")

	res := tr.ApplyMessage(&models.Message{
		ID: "m1", SenderID: "bob", ReceiverID: "alice",
		Content: "you there?", CreatedAt: time.Now(),
	})

	assert.True(t, res.AppendToOpen)
	assert.Equal(t, "bob", res.MarkReadFrom)
	require.NotNil(t, res.Patched)
	assert.False(t, res.Patched.Unread)
}

func TestOpenConversationClearsUnread(t *testing.T) {
	tr := NewTracker("alice")
	tr.SetList([]models.ConversationSummary{
		{PeerID: "bob", Unread: true},
		{PeerID: "carol", Unread: true},
	})

	tr.OpenConversation("bob")

	list := tr.Snapshot()
	assert.False(t, list[0].Unread)
	assert.True(t, list[1].Unread)
	assert.Equal(t, "bob", tr.OpenPeer())
}

func TestCloseConversation(t *testing.T) {
	tr := trackerWithPeers("alice", "bob")
	tr.OpenConversation("bob")
	tr.CloseConversation()

	assert.Empty(t, tr.OpenPeer())

	res := tr.ApplyMessage(&models.Message{
		ID: "m1", SenderID: "bob", ReceiverID: "alice", CreatedAt: time.Now(),
	})
	assert.False(t, res.AppendToOpen)
	assert.True(t, res.Patched.Unread)
}

func TestFriendshipChangedOnlyOnAccept(t *testing.T) {
	tr := NewTracker("alice")

	assert.True(t, tr.FriendshipChanged(&models.FriendRequest{Status: models.FriendStatusAccepted}))
	assert.False(t, tr.FriendshipChanged(&models.FriendRequest{Status: models.FriendStatusPending}))
	assert.False(t, tr.FriendshipChanged(&models.FriendRequest{Status: models.FriendStatusRejected}))
	assert.False(t, tr.FriendshipChanged(nil))
}
