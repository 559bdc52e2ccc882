package realtime

import (
	"context"
	"testing"

	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSessionDropsMalformedFrames(t *testing.T) {
	conn := &fakeSocket{inbound: [][]byte{
		[]byte(`this is not json`),
		[]byte(`{"type":"typing"}`),
		[]byte(`{"no_type_at_all":true}`),
	}}
	ch := &fakeChannel{}
	reg := NewGroupRegistry()

	s := newSession(structures.User{ID: primitive.NewObjectID()}, primitive.NilObjectID, conn, ch, reg, 8)
	s.run(context.Background())

	ch.mu.Lock()
	defer ch.mu.Unlock()

	// the malformed frame is dropped; frames without a type still reach the
	// channel, which ignores unknown types itself
	testutil.Assert(t, 2, len(ch.frames), "decoded frame count")
	testutil.Assert(t, events.EventTypeTyping, ch.frames[0].Type, "first frame type")
	testutil.Assert(t, events.EventType(""), ch.frames[1].Type, "untyped frame type")
}

func TestSessionTeardownRunsOnce(t *testing.T) {
	conn := &fakeSocket{}
	ch := &fakeChannel{}
	reg := NewGroupRegistry()
	group := ChatGroup(primitive.NewObjectID())

	s := newSession(structures.User{ID: primitive.NewObjectID()}, primitive.NilObjectID, conn, ch, reg, 8)
	s.Join(group)

	s.run(context.Background())
	s.destroy(context.Background())

	ch.mu.Lock()
	closes := ch.closes
	ch.mu.Unlock()

	testutil.Assert(t, 1, closes, "close hook runs once")
	testutil.Assert(t, 0, reg.Count(group), "session left its groups")
	testutil.Assert(t, true, conn.isClosed(), "socket closed")
	testutil.Assert(t, false, s.WriteRaw([]byte(`{}`)), "writes to a dead session are dropped")
}

func TestSessionOpenFailureTearsDown(t *testing.T) {
	conn := &fakeSocket{inbound: [][]byte{[]byte(`{"type":"typing"}`)}}
	ch := &fakeChannel{openErr: errors.ErrInternalServerError()}
	reg := NewGroupRegistry()

	s := newSession(structures.User{ID: primitive.NewObjectID()}, primitive.NilObjectID, conn, ch, reg, 8)
	s.run(context.Background())

	ch.mu.Lock()
	defer ch.mu.Unlock()

	testutil.Assert(t, 0, len(ch.frames), "no frames read after a refused open")
	testutil.Assert(t, 1, ch.closes, "close hook still runs")
	testutil.Assert(t, true, conn.isClosed(), "socket closed")
}

func TestSessionWriteRawNeverBlocks(t *testing.T) {
	conn := &fakeSocket{}
	s := newSession(structures.User{}, primitive.NilObjectID, conn, &fakeChannel{}, NewGroupRegistry(), 1)

	testutil.Assert(t, true, s.WriteRaw([]byte(`{"n":1}`)), "first write fits the queue")
	testutil.Assert(t, false, s.WriteRaw([]byte(`{"n":2}`)), "saturated queue drops")

	queued := drainSession(t, s)
	testutil.Assert(t, 1, len(queued), "only the first frame is queued")
}

func TestSessionJoinRecordsMembershipOnce(t *testing.T) {
	reg := NewGroupRegistry()
	group := ChatGroup(primitive.NewObjectID())

	s := newSession(structures.User{}, primitive.NilObjectID, &fakeSocket{}, &fakeChannel{}, reg, 8)
	s.Join(group)
	s.Join(group)

	s.groupsMx.Lock()
	n := len(s.groups)
	s.groupsMx.Unlock()

	testutil.Assert(t, 1, n, "membership recorded once")
	testutil.Assert(t, 1, reg.Count(group), "registry holds one entry")
}
