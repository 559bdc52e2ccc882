package realtime

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/mutate"
	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeMember records every frame broadcast to it. A failing member reports
// every delivery as dropped.
type fakeMember struct {
	id   string
	fail bool

	mu     sync.Mutex
	frames [][]byte
}

func (m *fakeMember) SessionID() string {
	return m.id
}

func (m *fakeMember) WriteRaw(data []byte) bool {
	if m.fail {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames = append(m.frames, data)

	return true
}

func (m *fakeMember) received(t *testing.T) []map[string]interface{} {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]map[string]interface{}, len(m.frames))
	for i, raw := range m.frames {
		body := map[string]interface{}{}
		testutil.IsNil(t, json.Unmarshal(raw, &body), "decode broadcast frame")

		out[i] = body
	}

	return out
}

// fakeSocket replays a scripted sequence of inbound frames, then reports a
// disconnect. Written frames are collected.
type fakeSocket struct {
	mu      sync.Mutex
	inbound [][]byte
	written [][]byte
	closed  bool
}

func (c *fakeSocket) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.inbound) == 0 {
		return 0, nil, io.EOF
	}

	data := c.inbound[0]
	c.inbound = c.inbound[1:]

	return websocket.TextMessage, data, nil
}

func (c *fakeSocket) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.written = append(c.written, data)

	return nil
}

func (c *fakeSocket) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeSocket) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// fakeChannel records the session lifecycle hooks.
type fakeChannel struct {
	openErr error

	mu     sync.Mutex
	opens  int
	closes int
	frames []events.Frame
}

func (c *fakeChannel) OnOpen(ctx context.Context, s *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opens++

	return c.openErr
}

func (c *fakeChannel) OnEvent(ctx context.Context, s *Session, f events.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, f)
}

func (c *fakeChannel) OnClose(ctx context.Context, s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++
}

// fakeChatDB backs the chat channel with in-memory rooms, channels, messages
// and receipts. It implements both MessageStore and RoomQuery.
type fakeChatDB struct {
	mu       sync.Mutex
	rooms    map[primitive.ObjectID]structures.Room
	channels map[primitive.ObjectID]structures.Channel
	messages map[primitive.ObjectID]structures.Message
	users    map[primitive.ObjectID]structures.User
	reads    map[primitive.ObjectID]map[primitive.ObjectID]bool
}

func newFakeChatDB() *fakeChatDB {
	return &fakeChatDB{
		rooms:    map[primitive.ObjectID]structures.Room{},
		channels: map[primitive.ObjectID]structures.Channel{},
		messages: map[primitive.ObjectID]structures.Message{},
		users:    map[primitive.ObjectID]structures.User{},
		reads:    map[primitive.ObjectID]map[primitive.ObjectID]bool{},
	}
}

func (db *fakeChatDB) CreateMessage(ctx context.Context, opt mutate.CreateMessageOptions) (structures.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg := structures.Message{
		ID:        primitive.NewObjectID(),
		RoomID:    opt.RoomID,
		ChannelID: opt.ChannelID,
		ParentID:  opt.ParentID,
		SenderID:  opt.SenderID,
		Content:   opt.Content,
		Type:      structures.MessageTypeText,
		CreatedAt: time.Now().UTC(),
	}

	db.messages[msg.ID] = msg

	return msg, nil
}

func (db *fakeChatDB) EditMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, content string) (structures.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg, ok := db.messages[messageID]
	if !ok || msg.RoomID != roomID || msg.SenderID != actorID {
		return structures.Message{}, errors.ErrUnknownMessage()
	}

	now := time.Now().UTC()
	msg.Content = content
	msg.EditedAt = &now
	db.messages[messageID] = msg

	return msg, nil
}

func (db *fakeChatDB) DeleteMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg, ok := db.messages[messageID]
	if !ok || msg.RoomID != roomID || msg.SenderID != actorID {
		return errors.ErrUnknownMessage()
	}

	delete(db.messages, messageID)
	delete(db.reads, messageID)

	return nil
}

func (db *fakeChatDB) ToggleReaction(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, emoji string) (structures.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg, ok := db.messages[messageID]
	if !ok || msg.RoomID != roomID {
		return structures.Message{}, errors.ErrUnknownMessage()
	}

	msg.ToggleReaction(actorID, emoji)
	db.messages[messageID] = msg

	return msg, nil
}

func (db *fakeChatDB) MarkMessagesRead(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	marked := []primitive.ObjectID{}

	for _, id := range messageIDs {
		msg, ok := db.messages[id]
		if !ok || msg.RoomID != roomID || msg.SenderID == actorID {
			continue
		}

		if db.reads[id] == nil {
			db.reads[id] = map[primitive.ObjectID]bool{}
		}

		if db.reads[id][actorID] {
			continue
		}

		db.reads[id][actorID] = true
		marked = append(marked, id)
	}

	return marked, nil
}

func (db *fakeChatDB) RoomByID(ctx context.Context, id primitive.ObjectID) (structures.Room, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	room, ok := db.rooms[id]
	if !ok {
		return structures.Room{}, errors.ErrUnknownRoom()
	}

	return room, nil
}

func (db *fakeChatDB) ChannelInRoom(ctx context.Context, roomID primitive.ObjectID, channelID primitive.ObjectID) (structures.Channel, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ch, ok := db.channels[channelID]
	if !ok || ch.RoomID != roomID {
		return structures.Channel{}, errors.ErrUnknownRoom()
	}

	return ch, nil
}

func (db *fakeChatDB) MessageInRoom(ctx context.Context, roomID primitive.ObjectID, messageID primitive.ObjectID) (structures.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg, ok := db.messages[messageID]
	if !ok || msg.RoomID != roomID {
		return structures.Message{}, errors.ErrUnknownMessage()
	}

	return msg, nil
}

func (db *fakeChatDB) MessageReadBy(ctx context.Context, messageID primitive.ObjectID) ([]primitive.ObjectID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := []primitive.ObjectID{}
	for userID := range db.reads[messageID] {
		ids = append(ids, userID)
	}

	return ids, nil
}

func (db *fakeChatDB) UserByID(ctx context.Context, id primitive.ObjectID) (structures.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return structures.DeletedUser, errors.ErrUnknownUser()
	}

	return u, nil
}

// mkFrame round-trips a value through the wire codec into an inbound frame.
func mkFrame(t *testing.T, v interface{}) events.Frame {
	t.Helper()

	b, err := json.Marshal(v)
	testutil.IsNil(t, err, "marshal frame")

	f, err := events.ParseFrame(b)
	testutil.IsNil(t, err, "parse frame")

	return f
}

// drainSession empties the session's send queue without a writer goroutine.
func drainSession(t *testing.T, s *Session) []map[string]interface{} {
	t.Helper()

	out := []map[string]interface{}{}

	for {
		select {
		case raw := <-s.send:
			body := map[string]interface{}{}
			testutil.IsNil(t, json.Unmarshal(raw, &body), "decode queued frame")

			out = append(out, body)
		default:
			return out
		}
	}
}
