package events

import (
	"github.com/trutim/api/data/model"
)

// Inbound bodies. Each is decoded from a full frame via Frame.DecodeInto;
// missing fields are left zero and validated by the handling channel.

type StatusPayload struct {
	Status string `json:"status"`
}

type MessagePayload struct {
	Content string `json:"content"`
	Parent  string `json:"parent,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type EditPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type DeletePayload struct {
	ID string `json:"id"`
}

type TypingPayload struct {
	Typing *bool `json:"typing"`
}

type MessageReadPayload struct {
	MessageIDs []string `json:"message_ids"`
}

type ReactionPayload struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji"`
}

// Outbound events. Every struct carries its own type tag so one marshal
// produces the complete frame.

type PresenceSnapshotEvent struct {
	Type     EventType                      `json:"type"`
	Presence map[string]model.PresenceModel `json:"presence"`
}

type PresenceUpdateEvent struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	Status string    `json:"status"`
	Online bool      `json:"online"`
}

type ChatMessageEvent struct {
	Type    EventType          `json:"type"`
	Message model.MessageModel `json:"message"`
}

type MessageDeletedEvent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"message_id"`
}

type UserPresenceInRoomEvent struct {
	Type EventType              `json:"type"`
	User model.UserPartialModel `json:"user"`
}

type TypingEvent struct {
	Type   EventType              `json:"type"`
	User   model.UserPartialModel `json:"user"`
	Typing bool                   `json:"typing"`
}

type MessageReadEvent struct {
	Type       EventType              `json:"type"`
	MessageIDs []string               `json:"message_ids"`
	User       model.UserPartialModel `json:"user"`
}

type CallLeaveEvent struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
}

func NewPresenceUpdate(userID string, status string, online bool) PresenceUpdateEvent {
	return PresenceUpdateEvent{
		Type:   EventTypePresenceUpdate,
		UserID: userID,
		Status: status,
		Online: online,
	}
}

func NewChatMessage(t EventType, msg model.MessageModel) ChatMessageEvent {
	return ChatMessageEvent{Type: t, Message: msg}
}
