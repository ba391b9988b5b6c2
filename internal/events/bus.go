package events

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-hub-backend/internal/models"
	"campus-hub-backend/internal/retry"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel names for row-change notifications.
const (
	TopicFriendRequests = "campus.friend_requests"
	TopicMessages       = "campus.messages"
	TopicAnnouncements  = "campus.announcements"
)

// Op is the kind of row change an event describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is a row-change notification. UserIDs lists the users the change is
// addressed to; an empty list means broadcast. Exactly one payload field is
// set, matching the topic the event is published on.
type Event struct {
	Op           Op                    `json:"op"`
	UserIDs      []string              `json:"user_ids,omitempty"`
	Request      *models.FriendRequest `json:"request,omitempty"`
	Message      *models.Message       `json:"message,omitempty"`
	Announcement *models.Announcement  `json:"announcement,omitempty"`
}

// Addresses reports whether the event is routed to the given user.
func (e *Event) Addresses(userID string) bool {
	if len(e.UserIDs) == 0 {
		return true
	}
	for _, id := range e.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Bus carries row-change events between service writes and the realtime
// gateway over Redis pub/sub, so fan-out works across server instances.
type Bus struct {
	rdb   *redis.Client
	retry retry.Policy
}

// NewBus creates a new event bus on the given Redis client
func NewBus(rdb *redis.Client, retryPolicy retry.Policy) *Bus {
	return &Bus{rdb: rdb, retry: retryPolicy}
}

// Publish sends an event on a topic. The publish is retried within the
// configured policy; a write that already committed is never failed because
// its notification could not be delivered, so the final error is only logged
// by callers.
func (b *Bus) Publish(ctx context.Context, topic string, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to marshal event: %w", err))
	}

	err = retry.Do(ctx, b.retry, func() error {
		if err := b.rdb.Publish(ctx, topic, data).Err(); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrBackendUnavailable, err)
	}
	return nil
}

// Handler receives dispatched events with the topic they arrived on.
type Handler func(topic string, evt Event)

// Run subscribes to all topics and dispatches incoming events to the handler
// until ctx is cancelled.
func (b *Bus) Run(ctx context.Context, handler Handler) error {
	sub := b.rdb.Subscribe(ctx, TopicFriendRequests, TopicMessages, TopicAnnouncements)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("event subscription closed")
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Error().Err(err).Str("topic", msg.Channel).Msg("Failed to decode event")
				continue
			}
			handler(msg.Channel, evt)
		}
	}
}
