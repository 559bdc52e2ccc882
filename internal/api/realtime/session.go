package realtime

import (
	"context"
	"sync"

	"github.com/fasthttp/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// socket is the subset of *websocket.Conn the session needs. Tests substitute
// an in-memory implementation.
type socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Channel is the per-endpoint behavior bound to a session: presence, chat
// room, or call signaling.
type Channel interface {
	// OnOpen runs after the handshake was accepted, before any frame is read.
	// The implementation joins its groups and emits initial state.
	OnOpen(ctx context.Context, s *Session) error
	// OnEvent handles one decoded inbound frame. Frames from one session
	// arrive sequentially.
	OnEvent(ctx context.Context, s *Session, f events.Frame)
	// OnClose runs exactly once, before the session leaves its groups.
	OnClose(ctx context.Context, s *Session)
}

// Session wraps one authenticated connection. The read loop is the only
// consumer of inbound frames; outbound delivery goes through a buffered send
// queue drained by a single writer, which gives FIFO per destination and
// isolates a slow peer from everyone else.
type Session struct {
	id      string
	actor   structures.User
	roomID  primitive.ObjectID
	conn    socket
	channel Channel

	send   chan []byte
	sendMx sync.RWMutex
	closed bool

	groupsMx sync.Mutex
	groups   []string

	registry *GroupRegistry
	once     sync.Once
	done     chan struct{}
}

func newSession(actor structures.User, roomID primitive.ObjectID, conn socket, channel Channel, registry *GroupRegistry, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &Session{
		id:       primitive.NewObjectID().Hex(),
		actor:    actor,
		roomID:   roomID,
		conn:     conn,
		channel:  channel,
		send:     make(chan []byte, sendBuffer),
		registry: registry,
		done:     make(chan struct{}),
	}
}

func (s *Session) SessionID() string {
	return s.id
}

func (s *Session) Actor() structures.User {
	return s.actor
}

func (s *Session) RoomID() primitive.ObjectID {
	return s.roomID
}

// Join adds the session to a group and records the membership for teardown.
func (s *Session) Join(group string) {
	s.registry.Join(group, s)

	s.groupsMx.Lock()
	defer s.groupsMx.Unlock()

	for _, g := range s.groups {
		if g == group {
			return
		}
	}

	s.groups = append(s.groups, group)
}

// Write marshals an event and enqueues it for this session.
func (s *Session) Write(ev interface{}) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.WriteRaw(b)

	return nil
}

// WriteRaw enqueues a pre-marshaled frame without blocking. A closed session
// or a saturated queue drops the frame.
func (s *Session) WriteRaw(data []byte) bool {
	s.sendMx.RLock()
	defer s.sendMx.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// run drives the session until the connection drops. It must be called from
// the connection's own goroutine.
func (s *Session) run(ctx context.Context) {
	go s.writeLoop()

	defer s.destroy(ctx)

	if err := s.channel.OnOpen(ctx, s); err != nil {
		zap.S().Errorw("session, failed to open channel",
			"error", err,
			"session_id", s.id,
			"actor_id", s.actor.ID,
		)

		return
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			// disconnect, any cause
			return
		}

		frame, err := events.ParseFrame(data)
		if err != nil {
			// malformed frame: drop, keep the connection
			continue
		}

		s.channel.OnEvent(ctx, s, frame)
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case data := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// destroy is the session's idempotent teardown: channel close hook, group
// departure, then the socket itself. Safe to call from any path, runs once.
func (s *Session) destroy(ctx context.Context) {
	s.once.Do(func() {
		s.channel.OnClose(ctx, s)

		s.groupsMx.Lock()
		groups := s.groups
		s.groups = nil
		s.groupsMx.Unlock()

		for _, g := range groups {
			s.registry.Leave(g, s)
		}

		s.sendMx.Lock()
		s.closed = true
		s.sendMx.Unlock()

		close(s.done)
		_ = s.conn.Close()
	})
}

// closeWithCode sends a close frame and tears the session down without
// invoking the channel hooks. Used when the handshake is refused.
func closeWithCode(conn socket, code events.CloseCode) {
	msg := websocket.FormatCloseMessage(int(code), code.String())
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
