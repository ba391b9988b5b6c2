package models

import "time"

// Profile represents a user profile
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	FieldOfStudy string    `json:"field_of_study,omitempty"`
	Year         int       `json:"year,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// FriendStatus is the relationship status between two users
type FriendStatus string

const (
	FriendStatusNone     FriendStatus = "none"
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusRejected FriendStatus = "rejected"
)

// FriendRequest represents a directed relationship record between two users.
// The record is stored directionally but the relationship is symmetric once
// accepted; lookups must check both orderings.
type FriendRequest struct {
	ID         string       `json:"id"`
	SenderID   string       `json:"sender_id"`
	ReceiverID string       `json:"receiver_id"`
	Status     FriendStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	Sender     *Profile     `json:"sender,omitempty"`
	Receiver   *Profile     `json:"receiver,omitempty"`
}

// Message represents a direct message between two users.
// ClientTag is a client-generated correlation id used to drop the echoed
// realtime notification for an optimistically applied send.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	MediaURL   *string   `json:"media_url,omitempty"`
	Read       bool      `json:"read"`
	ClientTag  string    `json:"client_tag,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Sender     *Profile  `json:"sender,omitempty"`
}

// ConversationSummary is a derived view of the latest state of a direct
// conversation with one peer. It is never persisted.
type ConversationSummary struct {
	PeerID        string    `json:"peer_id"`
	PeerName      string    `json:"peer_name"`
	PeerAvatarURL string    `json:"peer_avatar_url,omitempty"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	Unread        bool      `json:"unread"`
}

// AudienceAll targets an announcement at every user rather than one study group.
const AudienceAll = "all"

// Announcement represents a campus-wide or group-scoped announcement
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Audience  string    `json:"audience"` // "all" or a study group id
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// StudyGroup represents a study group
type StudyGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Course      string    `json:"course"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
	Joined      bool      `json:"joined"`
}

// ResourceStatus is the moderation state of a shared resource
type ResourceStatus string

const (
	ResourceStatusPending  ResourceStatus = "pending"
	ResourceStatusApproved ResourceStatus = "approved"
)

// Resource represents a file shared on the marketplace
type Resource struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	FileURL     string         `json:"file_url"`
	Status      ResourceStatus `json:"status"`
	UploadedBy  string         `json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Active reports whether the relationship record still occupies the pair,
// i.e. a new request between the two users must not be created.
func (s FriendStatus) Active() bool {
	return s == FriendStatusPending || s == FriendStatusAccepted
}
