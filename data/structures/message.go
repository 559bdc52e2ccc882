package structures

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

type Message struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RoomID    primitive.ObjectID  `json:"room_id" bson:"room_id"`
	ChannelID *primitive.ObjectID `json:"channel_id,omitempty" bson:"channel_id,omitempty"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	SenderID  primitive.ObjectID  `json:"sender_id" bson:"sender_id"`
	Content   string              `json:"content" bson:"content"`
	Type      MessageType         `json:"type" bson:"type"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	EditedAt  *time.Time          `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
	// Reactions maps an emoji to the set of users who reacted with it. An
	// emoji with an empty user set must not be stored.
	Reactions map[string][]primitive.ObjectID `json:"reactions" bson:"reactions,omitempty"`
}

// ToggleReaction flips the user's membership in the emoji's reaction set.
// An emoji whose set becomes empty is removed from the map entirely, so
// toggling twice restores the original value.
func (m *Message) ToggleReaction(userID primitive.ObjectID, emoji string) {
	if m.Reactions == nil {
		m.Reactions = map[string][]primitive.ObjectID{}
	}

	users := m.Reactions[emoji]

	for i, id := range users {
		if id == userID {
			next := append(users[:i:i], users[i+1:]...)
			if len(next) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = next
			}

			return
		}
	}

	m.Reactions[emoji] = append(users, userID)
}

// MessageRead is a read receipt. At most one exists per (message, user) pair,
// enforced by a unique compound index.
type MessageRead struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MessageID primitive.ObjectID `json:"message_id" bson:"message_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	ReadAt    time.Time          `json:"read_at" bson:"read_at"`
}
