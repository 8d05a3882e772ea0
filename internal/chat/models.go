package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat message stored in a chatroom
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ChatroomID     uuid.UUID `db:"chatroom_id" json:"chatroom_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderUsername string    `db:"sender_username" json:"sender_username"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Event is the payload published to Redis when a message is created.
// Subscribers on the room channel receive it as JSON.
type Event struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// EventMessageCreated marks a newly stored chat message
const EventMessageCreated = "message.created"
