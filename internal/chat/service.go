package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/chatrooms"
	"github.com/teamhubhq/teamhub/internal/notify"
)

// ErrSenderNotFound is returned when the sending user no longer exists
var ErrSenderNotFound = errors.New("sender not found")

// Service stores chat messages and handles mention notifications and
// real-time fan-out.
type Service struct {
	pool      *pgxpool.Pool
	rooms     *chatrooms.Service
	notifier  *notify.Service
	publisher *Publisher
}

// NewService creates a new chat service
func NewService(pool *pgxpool.Pool, rooms *chatrooms.Service, notifier *notify.Service, publisher *Publisher) *Service {
	return &Service{pool: pool, rooms: rooms, notifier: notifier, publisher: publisher}
}

// History retrieves the message history of a chatroom, oldest first.
func (s *Service) History(ctx context.Context, chatroomID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.chatroom_id, m.sender_id, u.username, m.content, m.created_at
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE m.chatroom_id = $1
		ORDER BY m.created_at ASC
	`, chatroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message history: %w", err)
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatroomID, &m.SenderID, &m.SenderUsername, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, m)
	}

	return result, rows.Err()
}

// Send stores a message in the room, notifies mentioned visible members and
// publishes the message event. Notification and publish failures are logged
// but never fail the send: the message is already stored.
func (s *Service) Send(ctx context.Context, room *chatrooms.Chatroom, senderID uuid.UUID, content string) (*Message, error) {
	var senderUsername string
	err := s.pool.QueryRow(ctx, `
		SELECT username FROM users WHERE id = $1
	`, senderID).Scan(&senderUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSenderNotFound
		}
		return nil, fmt.Errorf("failed to look up sender: %w", err)
	}

	msg := Message{
		ChatroomID:     room.ID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Content:        content,
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO messages (chatroom_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, room.ID, senderID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.notifyMentions(ctx, room, &msg)

	if err := s.publisher.PublishMessage(ctx, msg); err != nil {
		log.Error().Err(err).Stringer("chatroom_id", room.ID).Msg("Failed to publish chat event")
	}

	return &msg, nil
}

// notifyMentions sends a notification to every mentioned user who is in the
// room's visible set. Mentions of users outside the room, unknown usernames
// and self-mentions are ignored.
func (s *Service) notifyMentions(ctx context.Context, room *chatrooms.Chatroom, msg *Message) {
	mentioned := ExtractMentions(msg.Content)
	if len(mentioned) == 0 {
		return
	}

	visible, err := s.rooms.ResolveVisibleMembers(ctx, room)
	if err != nil {
		log.Error().Err(err).Stringer("chatroom_id", room.ID).Msg("Failed to resolve members for mentions")
		return
	}

	byUsername := make(map[string]uuid.UUID, len(visible))
	for _, m := range visible {
		byUsername[m.Username] = m.UserID
	}

	text := MentionMessage(msg.SenderUsername, room.Name)
	for _, username := range mentioned {
		userID, ok := byUsername[username]
		if !ok || userID == msg.SenderID {
			continue
		}
		if err := s.notifier.Notify(ctx, userID, text); err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to send mention notification")
		}
	}
}
