package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// attachmentOnlyBody is stored when a message carries a file but no text.
const attachmentOnlyBody = " "

// MessageStore is the persistence surface the message service needs
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	Transcript(ctx context.Context, userID, peerID string) ([]*models.Message, error)
	MarkRead(ctx context.Context, peerID, userID string) (int64, error)
}

// RelationshipChecker reports the relationship status between two users
type RelationshipChecker interface {
	Status(ctx context.Context, userID, otherID string) (models.FriendStatus, error)
}

// MessageService handles the per-conversation message log: transcripts,
// read-state tracking, and sends with optional attachments.
type MessageService struct {
	messages MessageStore
	friends  RelationshipChecker
	storage  Uploader
	bus      EventPublisher
	now      func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, friends RelationshipChecker, storage Uploader, bus EventPublisher) *MessageService {
	return &MessageService{
		messages: messages,
		friends:  friends,
		storage:  storage,
		bus:      bus,
		now:      time.Now,
	}
}

// Open marks every unread message from the peer as read, then returns the
// full ascending transcript with sender profiles joined
func (s *MessageService) Open(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	if peerID == "" {
		return nil, fmt.Errorf("%w: peer required", models.ErrValidation)
	}

	if _, err := s.messages.MarkRead(ctx, peerID, userID); err != nil {
		return nil, err
	}

	return s.messages.Transcript(ctx, userID, peerID)
}

// MarkConversationRead flips every unread message from the peer to read
func (s *MessageService) MarkConversationRead(ctx context.Context, userID, peerID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	_, err := s.messages.MarkRead(ctx, peerID, userID)
	return err
}

// Attachment is an uploaded file accompanying a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Send stores a new message and notifies both parties. Only accepted peers
// can message each other. An attachment is uploaded first under a path scoped
// to the sender; a message with an attachment and no text gets a single-space
// placeholder body. ClientTag is echoed back so the sender's optimistic
// append can drop the notification.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, body string, attachment *Attachment, clientTag string) (*models.Message, error) {
	if senderID == "" {
		return nil, models.ErrUnauthenticated
	}
	if receiverID == "" || receiverID == senderID {
		return nil, fmt.Errorf("%w: valid receiver required", models.ErrValidation)
	}
	if strings.TrimSpace(body) == "" && attachment == nil {
		return nil, fmt.Errorf("%w: message body or attachment required", models.ErrValidation)
	}

	status, err := s.friends.Status(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if status != models.FriendStatusAccepted {
		return nil, fmt.Errorf("%w: users are not friends", models.ErrForbidden)
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    body,
		ClientTag:  clientTag,
		CreatedAt:  s.now(),
	}

	if attachment != nil {
		key := fmt.Sprintf("attachments/%s/%s%s", senderID, uuid.New().String(), path.Ext(attachment.Filename))
		url, err := s.storage.Upload(ctx, key, attachment.ContentType, attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		msg.MediaURL = &url
		if strings.TrimSpace(body) == "" {
			msg.Content = attachmentOnlyBody
		}
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	evt := events.Event{
		Op:      events.OpInsert,
		UserIDs: []string{msg.SenderID, msg.ReceiverID},
		Message: msg,
	}
	if err := s.bus.Publish(ctx, events.TopicMessages, evt); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to publish message event")
	}

	return msg, nil
}
