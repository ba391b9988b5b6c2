package services

import (
	"sync"

	"campus-hub-backend/internal/models"
)

// Tracker holds the live conversation state for one connected user: the
// current summary list, which conversation is open, and the set of message
// ids already applied. Notifications and client commands arrive on different
// goroutines, so every method takes the lock.
//
// Incoming message events are applied as in-place patches keyed by peer;
// a full refetch is only requested when an event references a peer the
// tracker does not know yet (a freshly accepted friendship).
type Tracker struct {
	mu       sync.Mutex
	userID   string
	openPeer string
	list     []models.ConversationSummary
	seen     map[string]struct{}
}

// NewTracker creates a tracker for the given user
func NewTracker(userID string) *Tracker {
	return &Tracker{
		userID: userID,
		seen:   make(map[string]struct{}),
	}
}

// SetList replaces the tracked conversation list
func (t *Tracker) SetList(list []models.ConversationSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = append([]models.ConversationSummary(nil), list...)
}

// Snapshot returns a copy of the tracked conversation list
func (t *Tracker) Snapshot() []models.ConversationSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ConversationSummary(nil), t.list...)
}

// OpenConversation marks the conversation with the peer as open; incoming
// messages from that peer are appended to the transcript and read immediately
func (t *Tracker) OpenConversation(peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openPeer = peerID
	for i := range t.list {
		if t.list[i].PeerID == peerID {
			t.list[i].Unread = false
		}
	}
}

// CloseConversation clears the open conversation
func (t *Tracker) CloseConversation() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openPeer = ""
}

// OpenPeer returns the peer of the currently open conversation, if any
func (t *Tracker) OpenPeer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openPeer
}

// ReserveTag marks a client correlation tag as seen before the send is
// stored, so an echo arriving while the send is in flight is already
// recognized as a duplicate
func (t *Tracker) ReserveTag(tag string) {
	if tag == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[tag] = struct{}{}
}

// NoteSent records an optimistically applied outgoing message so its echoed
// notification is dropped, and patches the sender's own conversation preview
func (t *Tracker) NoteSent(msg *models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.markSeen(msg)
	t.patch(msg, msg.ReceiverID, false)
}

// MessageApply is the outcome of applying one message notification
type MessageApply struct {
	// Duplicate is set when the message was already applied optimistically
	// and the notification must be dropped.
	Duplicate bool
	// AppendToOpen is set when the message belongs to the open conversation
	// and should be appended to the client transcript.
	AppendToOpen bool
	// MarkReadFrom names the peer whose messages should be flipped to read
	// in the store, because the user is looking at that conversation.
	MarkReadFrom string
	// Patched holds the updated summary for the affected conversation.
	Patched *models.ConversationSummary
	// NeedRefetch is set when the event references an unknown peer and the
	// whole list must be rebuilt.
	NeedRefetch bool
}

// ApplyMessage applies an incoming message notification to the tracked state
func (t *Tracker) ApplyMessage(msg *models.Message) MessageApply {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isSeen(msg) {
		return MessageApply{Duplicate: true}
	}
	t.markSeen(msg)

	peerID := msg.SenderID
	if peerID == t.userID {
		peerID = msg.ReceiverID
	}
	open := t.openPeer != "" && t.openPeer == peerID

	var res MessageApply
	if open {
		res.AppendToOpen = true
		if msg.SenderID == peerID {
			res.MarkReadFrom = peerID
		}
	}

	res.Patched = t.patch(msg, peerID, !open && msg.ReceiverID == t.userID && !msg.Read)
	if res.Patched == nil {
		res.NeedRefetch = true
	}

	return res
}

// FriendshipChanged reports whether a relationship event requires rebuilding
// the conversation list (only a newly accepted friendship adds a peer)
func (t *Tracker) FriendshipChanged(req *models.FriendRequest) bool {
	return req != nil && req.Status == models.FriendStatusAccepted
}

// patch updates the summary for the peer in place and moves it to the front.
// It returns nil when the peer is not in the list.
func (t *Tracker) patch(msg *models.Message, peerID string, unread bool) *models.ConversationSummary {
	for i := range t.list {
		if t.list[i].PeerID != peerID {
			continue
		}
		t.list[i].LastMessage = msg.Content
		t.list[i].LastMessageAt = msg.CreatedAt
		t.list[i].Unread = unread

		summary := t.list[i]
		copy(t.list[1:i+1], t.list[:i])
		t.list[0] = summary

		out := summary
		return &out
	}
	return nil
}

func (t *Tracker) isSeen(msg *models.Message) bool {
	if _, ok := t.seen[msg.ID]; ok {
		return true
	}
	if msg.ClientTag != "" {
		if _, ok := t.seen[msg.ClientTag]; ok {
			return true
		}
	}
	return false
}

func (t *Tracker) markSeen(msg *models.Message) {
	t.seen[msg.ID] = struct{}{}
	if msg.ClientTag != "" {
		t.seen[msg.ClientTag] = struct{}{}
	}
}
