package services

import (
	"context"
	"testing"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessageStore struct {
	created    []*models.Message
	transcript []*models.Message

	markedPeer string
	markedUser string
	marked     int64
}

func (s *stubMessageStore) Create(ctx context.Context, msg *models.Message) error {
	s.created = append(s.created, msg)
	return nil
}

func (s *stubMessageStore) Transcript(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	return s.transcript, nil
}

func (s *stubMessageStore) MarkRead(ctx context.Context, peerID, userID string) (int64, error) {
	s.markedPeer = peerID
	s.markedUser = userID
	return s.marked, nil
}

type stubRelationship struct {
	status models.FriendStatus
}

func (s *stubRelationship) Status(ctx context.Context, userID, otherID string) (models.FriendStatus, error) {
	return s.status, nil
}

type stubUploader struct {
	keys []string
	url  string
	err  error
}

func (s *stubUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return s.url, nil
}

func newMessageService(store *stubMessageStore, status models.FriendStatus, uploader *stubUploader, bus *stubBus) *MessageService {
	return NewMessageService(store, &stubRelationship{status: status}, uploader, bus)
}

func TestSendStoresAndPublishes(t *testing.T) {
	store := &stubMessageStore{}
	bus := &stubBus{}
	svc := newMessageService(store, models.FriendStatusAccepted, &stubUploader{}, bus)

	msg, err := svc.Send(context.Background(), "alice", "bob", "see you at 5", nil, "tag-1")
	require.NoError(t, err)

	assert.Equal(t, "see you at 5", msg.Content)
	assert.Equal(t, "tag-1", msg.ClientTag)
	assert.Nil(t, msg.MediaURL)
	assert.False(t, msg.Read)

	require.Len(t, store.created, 1)
	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TopicMessages, bus.published[0].topic)
	assert.Equal(t, events.OpInsert, bus.published[0].evt.Op)
	assert.ElementsMatch(t, []string{"alice", "bob"}, bus.published[0].evt.UserIDs)
}

func TestSendRequiresAcceptedFriendship(t *testing.T) {
	store := &stubMessageStore{}
	svc := newMessageService(store, models.FriendStatusPending, &stubUploader{}, &stubBus{})

	_, err := svc.Send(context.Background(), "alice", "bob", "hi", nil, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Empty(t, store.created)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	svc := newMessageService(&stubMessageStore{}, models.FriendStatusAccepted, &stubUploader{}, &stubBus{})

	_, err := svc.Send(context.Background(), "alice", "bob", "   ", nil, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSendRejectsSelf(t *testing.T) {
	svc := newMessageService(&stubMessageStore{}, models.FriendStatusAccepted, &stubUploader{}, &stubBus{})

	_, err := svc.Send(context.Background(), "alice", "alice", "hi", nil, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSendAttachmentOnlyUsesPlaceholderBody(t *testing.T) {
	uploader := &stubUploader{url: "https://cdn/attachments/x.png"}
	store := &stubMessageStore{}
	svc := newMessageService(store, models.FriendStatusAccepted, uploader, &stubBus{})

	msg, err := svc.Send(context.Background(), "alice", "bob", "", &Attachment{
		Filename:    "photo.png",
		ContentType: "image/png",
		Data:        []byte{1, 2, 3},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, attachmentOnlyBody, msg.Content)
	require.NotNil(t, msg.MediaURL)
	assert.Equal(t, "https://cdn/attachments/x.png", *msg.MediaURL)

	require.Len(t, uploader.keys, 1)
	assert.Contains(t, uploader.keys[0], "attachments/alice/")
	assert.Contains(t, uploader.keys[0], ".png")
}

func TestSendAttachmentWithTextKeepsText(t *testing.T) {
	uploader := &stubUploader{url: "https://cdn/a.pdf"}
	svc := newMessageService(&stubMessageStore{}, models.FriendStatusAccepted, uploader, &stubBus{})

	msg, err := svc.Send(context.Background(), "alice", "bob", "notes attached", &Attachment{
		Filename: "notes.pdf",
		Data:     []byte{1},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "notes attached", msg.Content)
}

func TestSendUploadFailureDoesNotStore(t *testing.T) {
	store := &stubMessageStore{}
	svc := newMessageService(store, models.FriendStatusAccepted, &stubUploader{err: assert.AnError}, &stubBus{})

	_, err := svc.Send(context.Background(), "alice", "bob", "", &Attachment{
		Filename: "photo.png",
		Data:     []byte{1},
	}, "")
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestOpenMarksReadThenReturnsTranscript(t *testing.T) {
	store := &stubMessageStore{
		transcript: []*models.Message{
			{ID: "m1", SenderID: "bob", ReceiverID: "alice", Content: "hi", Read: true},
			{ID: "m2", SenderID: "alice", ReceiverID: "bob", Content: "hey"},
		},
		marked: 1,
	}
	svc := newMessageService(store, models.FriendStatusAccepted, &stubUploader{}, &stubBus{})

	msgs, err := svc.Open(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "bob", store.markedPeer)
	assert.Equal(t, "alice", store.markedUser)
}

func TestOpenRequiresPeer(t *testing.T) {
	svc := newMessageService(&stubMessageStore{}, models.FriendStatusAccepted, &stubUploader{}, &stubBus{})

	_, err := svc.Open(context.Background(), "alice", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}
