package realtime

import (
	"testing"

	"github.com/trutim/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGroupJoinIsIdempotent(t *testing.T) {
	reg := NewGroupRegistry()
	group := ChatGroup(primitive.NewObjectID())
	m := &fakeMember{id: "a"}

	reg.Join(group, m)
	reg.Join(group, m)

	testutil.Assert(t, 1, reg.Count(group), "double join counts once")

	reg.BroadcastRaw(group, []byte(`{"type":"typing"}`), "")
	testutil.Assert(t, 1, len(m.received(t)), "one delivery per broadcast")
}

func TestGroupBroadcastExcludesOneMember(t *testing.T) {
	reg := NewGroupRegistry()
	group := ChatGroup(primitive.NewObjectID())

	a := &fakeMember{id: "a"}
	b := &fakeMember{id: "b"}
	c := &fakeMember{id: "c"}

	reg.Join(group, a)
	reg.Join(group, b)
	reg.Join(group, c)

	reg.BroadcastRaw(group, []byte(`{"type":"typing"}`), "b")

	testutil.Assert(t, 1, len(a.received(t)), "a receives")
	testutil.Assert(t, 0, len(b.received(t)), "excluded member receives nothing")
	testutil.Assert(t, 1, len(c.received(t)), "c receives")
}

func TestGroupBroadcastSurvivesDeadMember(t *testing.T) {
	reg := NewGroupRegistry()
	group := CallGroup(primitive.NewObjectID())

	dead := &fakeMember{id: "dead", fail: true}
	live := &fakeMember{id: "live"}

	reg.Join(group, dead)
	reg.Join(group, live)

	reg.BroadcastRaw(group, []byte(`{"type":"offer"}`), "")

	testutil.Assert(t, 1, len(live.received(t)), "healthy member still receives")
}

func TestGroupLeaveCollectsEmptyGroup(t *testing.T) {
	reg := NewGroupRegistry()
	group := ChatGroup(primitive.NewObjectID())
	m := &fakeMember{id: "a"}

	reg.Join(group, m)
	reg.Leave(group, m)

	testutil.Assert(t, 0, reg.Count(group), "group is empty after last leave")

	s := reg.shard(group)
	s.mu.Lock()
	_, ok := s.groups[group]
	s.mu.Unlock()

	testutil.Assert(t, false, ok, "empty group is removed from the shard")

	// broadcasting to a collected group is a no-op
	reg.BroadcastRaw(group, []byte(`{"type":"typing"}`), "")
}

func TestGroupsAreIndependent(t *testing.T) {
	reg := NewGroupRegistry()
	roomID := primitive.NewObjectID()

	chat := &fakeMember{id: "chat"}
	call := &fakeMember{id: "call"}

	reg.Join(ChatGroup(roomID), chat)
	reg.Join(CallGroup(roomID), call)

	reg.BroadcastRaw(ChatGroup(roomID), []byte(`{"type":"message"}`), "")

	testutil.Assert(t, 1, len(chat.received(t)), "chat group receives")
	testutil.Assert(t, 0, len(call.received(t)), "call group untouched")
}
