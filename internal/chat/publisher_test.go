package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestChannelFor(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	require.Equal(t, "chat:11111111-2222-3333-4444-555555555555", ChannelFor(id))
}

func TestPublishMessage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()

	msg := Message{
		ID:             uuid.New(),
		ChatroomID:     uuid.New(),
		SenderID:       uuid.New(),
		SenderUsername: "alice",
		Content:        "hello @bob",
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}

	sub := rdb.Subscribe(ctx, ChannelFor(msg.ChatroomID))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, NewPublisher(rdb).PublishMessage(ctx, msg))

	received, err := sub.ReceiveTimeout(ctx, 2*time.Second)
	require.NoError(t, err)

	payload, ok := received.(*redis.Message)
	require.True(t, ok)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(payload.Payload), &event))
	require.Equal(t, EventMessageCreated, event.Type)
	require.Equal(t, msg.ID, event.Message.ID)
	require.Equal(t, msg.Content, event.Message.Content)
	require.Equal(t, "alice", event.Message.SenderUsername)
}
