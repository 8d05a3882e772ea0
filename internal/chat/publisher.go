package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher fans chat events out over Redis pub/sub. Each chatroom has its
// own channel so subscribers only receive traffic for rooms they watch.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a publisher on the given Redis client
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// ChannelFor returns the pub/sub channel name for a chatroom.
func ChannelFor(chatroomID uuid.UUID) string {
	return "chat:" + chatroomID.String()
}

// PublishMessage publishes a message-created event to the room's channel.
func (p *Publisher) PublishMessage(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(Event{Type: EventMessageCreated, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to encode chat event: %w", err)
	}

	if err := p.rdb.Publish(ctx, ChannelFor(msg.ChatroomID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish chat event: %w", err)
	}
	return nil
}
