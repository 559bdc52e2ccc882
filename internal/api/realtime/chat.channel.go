package realtime

import (
	"context"
	"strings"

	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/model"
	"github.com/trutim/api/data/mutate"
	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MessageStore is the mutation half of the message store the chat channel
// consumes. Implemented by *mutate.Mutate; replaced with an in-memory fake in
// tests.
type MessageStore interface {
	CreateMessage(ctx context.Context, opt mutate.CreateMessageOptions) (structures.Message, error)
	EditMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, content string) (structures.Message, error)
	DeleteMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID) error
	ToggleReaction(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, emoji string) (structures.Message, error)
	MarkMessagesRead(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

// RoomQuery is the read half: room-scoped resolution of rooms, channels,
// parents and receipts. Implemented by *query.Query.
type RoomQuery interface {
	RoomByID(ctx context.Context, id primitive.ObjectID) (structures.Room, error)
	ChannelInRoom(ctx context.Context, roomID primitive.ObjectID, channelID primitive.ObjectID) (structures.Channel, error)
	MessageInRoom(ctx context.Context, roomID primitive.ObjectID, messageID primitive.ObjectID) (structures.Message, error)
	MessageReadBy(ctx context.Context, messageID primitive.ObjectID) ([]primitive.ObjectID, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (structures.User, error)
}

// ChatChannel handles one room's live stream: messages, edits, deletions,
// typing, read receipts and reaction toggles. Validation and authorization
// failures are silent no-ops; the protocol never surfaces them to the client.
type ChatChannel struct {
	store     MessageStore
	q         RoomQuery
	modelizer model.Modelizer
	dispatch  *Dispatcher
}

func NewChatChannel(store MessageStore, q RoomQuery, modelizer model.Modelizer, dispatch *Dispatcher) *ChatChannel {
	return &ChatChannel{
		store:     store,
		q:         q,
		modelizer: modelizer,
		dispatch:  dispatch,
	}
}

func (c *ChatChannel) OnOpen(ctx context.Context, s *Session) error {
	s.Join(ChatGroup(s.RoomID()))

	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.UserPresenceInRoomEvent{
		Type: events.EventTypeUserJoined,
		User: c.modelizer.UserPartial(s.Actor()),
	}, "")

	return nil
}

func (c *ChatChannel) OnClose(ctx context.Context, s *Session) {
	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.UserPresenceInRoomEvent{
		Type: events.EventTypeUserLeft,
		User: c.modelizer.UserPartial(s.Actor()),
	}, "")
}

func (c *ChatChannel) OnEvent(ctx context.Context, s *Session, f events.Frame) {
	switch f.Type {
	case events.EventTypeMessage:
		c.onMessage(ctx, s, f)
	case events.EventTypeEdit:
		c.onEdit(ctx, s, f)
	case events.EventTypeDelete:
		c.onDelete(ctx, s, f)
	case events.EventTypeTyping:
		c.onTyping(ctx, s, f)
	case events.EventTypeMessageRead:
		c.onMessageRead(ctx, s, f)
	case events.EventTypeReaction:
		c.onReaction(ctx, s, f)
	default:
		// unknown frame types are ignored for forward compatibility
	}
}

func (c *ChatChannel) onMessage(ctx context.Context, s *Session, f events.Frame) {
	body := events.MessagePayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		return
	}

	if _, err := c.q.RoomByID(ctx, s.RoomID()); err != nil {
		return
	}

	// parent and channel resolve within this room only; anything else is
	// treated as absent
	var parentID *primitive.ObjectID
	if id, err := primitive.ObjectIDFromHex(body.Parent); err == nil {
		if parent, err := c.q.MessageInRoom(ctx, s.RoomID(), id); err == nil {
			parentID = &parent.ID
		}
	}

	var channelID *primitive.ObjectID
	if id, err := primitive.ObjectIDFromHex(body.Channel); err == nil {
		if ch, err := c.q.ChannelInRoom(ctx, s.RoomID(), id); err == nil {
			channelID = &ch.ID
		}
	}

	msg, err := c.store.CreateMessage(ctx, mutate.CreateMessageOptions{
		RoomID:    s.RoomID(),
		SenderID:  s.Actor().ID,
		Content:   content,
		ParentID:  parentID,
		ChannelID: channelID,
	})
	if err != nil {
		zap.S().Errorw("chat, failed to persist message",
			"error", err,
			"room_id", s.RoomID(),
			"actor_id", s.Actor().ID,
		)

		return
	}

	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.NewChatMessage(
		events.EventTypeMessage,
		c.modelizer.Message(msg, s.Actor(), nil),
	), "")
}

func (c *ChatChannel) onEdit(ctx context.Context, s *Session, f events.Frame) {
	body := events.EditPayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		return
	}

	msgID, err := primitive.ObjectIDFromHex(body.ID)
	if err != nil {
		return
	}

	msg, err := c.store.EditMessage(ctx, s.RoomID(), s.Actor().ID, msgID, content)
	if err != nil {
		// not found and not yours are indistinguishable on purpose
		c.logStoreErr("edit", s, err)

		return
	}

	readBy, _ := c.q.MessageReadBy(ctx, msg.ID)

	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.NewChatMessage(
		events.EventTypeMessageEdited,
		c.modelizer.Message(msg, s.Actor(), readBy),
	), "")
}

func (c *ChatChannel) onDelete(ctx context.Context, s *Session, f events.Frame) {
	body := events.DeletePayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	msgID, err := primitive.ObjectIDFromHex(body.ID)
	if err != nil {
		return
	}

	if err = c.store.DeleteMessage(ctx, s.RoomID(), s.Actor().ID, msgID); err != nil {
		c.logStoreErr("delete", s, err)

		return
	}

	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.MessageDeletedEvent{
		Type:      events.EventTypeMessageDeleted,
		MessageID: body.ID,
	}, "")
}

func (c *ChatChannel) onTyping(ctx context.Context, s *Session, f events.Frame) {
	body := events.TypingPayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	typing := true
	if body.Typing != nil {
		typing = *body.Typing
	}

	// the sender never sees its own typing echo
	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.TypingEvent{
		Type:   events.EventTypeTyping,
		User:   c.modelizer.UserPartial(s.Actor()),
		Typing: typing,
	}, s.SessionID())
}

func (c *ChatChannel) onMessageRead(ctx context.Context, s *Session, f events.Frame) {
	body := events.MessageReadPayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	ids := make([]primitive.ObjectID, 0, len(body.MessageIDs))
	for _, raw := range body.MessageIDs {
		if id, err := primitive.ObjectIDFromHex(raw); err == nil {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return
	}

	marked, err := c.store.MarkMessagesRead(ctx, s.RoomID(), s.Actor().ID, ids)
	if err != nil {
		c.logStoreErr("message_read", s, err)

		return
	}

	// re-marking already-read messages produces an empty set: no broadcast
	if len(marked) == 0 {
		return
	}

	hexIDs := make([]string, len(marked))
	for i, id := range marked {
		hexIDs[i] = id.Hex()
	}

	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.MessageReadEvent{
		Type:       events.EventTypeMessageRead,
		MessageIDs: hexIDs,
		User:       c.modelizer.UserPartial(s.Actor()),
	}, "")
}

func (c *ChatChannel) onReaction(ctx context.Context, s *Session, f events.Frame) {
	body := events.ReactionPayload{}
	if err := f.DecodeInto(&body); err != nil {
		return
	}

	if body.Emoji == "" {
		return
	}

	msgID, err := primitive.ObjectIDFromHex(body.ID)
	if err != nil {
		return
	}

	msg, err := c.store.ToggleReaction(ctx, s.RoomID(), s.Actor().ID, msgID, body.Emoji)
	if err != nil {
		c.logStoreErr("reaction", s, err)

		return
	}

	sender := s.Actor()
	if msg.SenderID != sender.ID {
		if u, err := c.q.UserByID(ctx, msg.SenderID); err == nil {
			sender = u
		}
	}

	readBy, _ := c.q.MessageReadBy(ctx, msg.ID)

	// clients treat reaction changes as message updates
	c.dispatch.Dispatch(ChatGroup(s.RoomID()), events.NewChatMessage(
		events.EventTypeMessageUpdated,
		c.modelizer.Message(msg, sender, readBy),
	), "")
}

// logStoreErr surfaces persistence failures to operators. Lookup and
// authorization misses stay silent.
func (c *ChatChannel) logStoreErr(op string, s *Session, err error) {
	if apiErr, ok := err.(errors.APIError); ok && apiErr.ExpectedHTTPStatus() < 500 {
		return
	}

	zap.S().Errorw("chat, store operation failed",
		"error", err,
		"op", op,
		"room_id", s.RoomID(),
		"actor_id", s.Actor().ID,
	)
}
