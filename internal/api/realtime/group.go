package realtime

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// GroupMember is the write side of a session as the registry sees it.
type GroupMember interface {
	SessionID() string
	// WriteRaw enqueues one pre-marshaled frame. It must never block; it
	// reports false when the delivery was dropped.
	WriteRaw(data []byte) bool
}

func ChatGroup(roomID primitive.ObjectID) string {
	return fmt.Sprintf("chat_%s", roomID.Hex())
}

func CallGroup(roomID primitive.ObjectID) string {
	return fmt.Sprintf("call_%s", roomID.Hex())
}

const groupShardCount = 32

type groupShard struct {
	mu     sync.Mutex
	groups map[string]map[string]GroupMember
}

// GroupRegistry maintains named broadcast groups. Groups on different shards
// never contend; a group is created on first join and garbage-collected when
// its last member leaves.
type GroupRegistry struct {
	shards  [groupShardCount]*groupShard
	dropped prometheus.Counter
}

func NewGroupRegistry() *GroupRegistry {
	r := &GroupRegistry{}
	for i := range r.shards {
		r.shards[i] = &groupShard{groups: map[string]map[string]GroupMember{}}
	}

	return r
}

func (r *GroupRegistry) shard(name string) *groupShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))

	return r.shards[h.Sum32()%groupShardCount]
}

// Join adds the member to the group. Joining a group twice is a no-op; a
// session appears in a group at most once.
func (r *GroupRegistry) Join(name string, m GroupMember) {
	s := r.shard(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[name]
	if !ok {
		g = map[string]GroupMember{}
		s.groups[name] = g
	}

	g[m.SessionID()] = m
}

func (r *GroupRegistry) Leave(name string, m GroupMember) {
	s := r.shard(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[name]
	if !ok {
		return
	}

	delete(g, m.SessionID())

	if len(g) == 0 {
		delete(s.groups, name)
	}
}

// BroadcastRaw delivers one frame to every current member except the one
// identified by excludeID. The membership snapshot is taken under the shard
// lock; the sends themselves happen outside it, and a failed send to one
// member never affects the rest.
func (r *GroupRegistry) BroadcastRaw(name string, data []byte, excludeID string) {
	s := r.shard(name)

	s.mu.Lock()
	members := make([]GroupMember, 0, len(s.groups[name]))
	for id, m := range s.groups[name] {
		if id == excludeID {
			continue
		}

		members = append(members, m)
	}
	s.mu.Unlock()

	for _, m := range members {
		if ok := m.WriteRaw(data); !ok {
			if r.dropped != nil {
				r.dropped.Inc()
			}

			zap.S().Debugw("dropped delivery to session",
				"group", name,
				"session_id", m.SessionID(),
			)
		}
	}
}

// Count reports the group's current size.
func (r *GroupRegistry) Count(name string) int {
	s := r.shard(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.groups[name])
}
