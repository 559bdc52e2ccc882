package realtime

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/trutim/api/internal/global"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dispatcher fans events out to local group members and, when a NATS
// connection is configured, mirrors them to sibling nodes so a group spanning
// several instances behaves like one.
type Dispatcher struct {
	gctx     global.Context
	registry *GroupRegistry
	nc       *nats.Conn
	subject  string
	node     string
}

type dispatchEnvelope struct {
	Node    string              `json:"node"`
	Group   string              `json:"group"`
	Exclude string              `json:"exclude,omitempty"`
	Payload jsoniter.RawMessage `json:"payload"`
}

func NewDispatcher(gctx global.Context, registry *GroupRegistry) (*Dispatcher, error) {
	d := &Dispatcher{
		gctx:     gctx,
		registry: registry,
		nc:       gctx.Inst().Nats,
		subject:  gctx.Config().Nats.Subject,
		node:     gctx.Config().NodeName,
	}

	if d.subject == "" {
		d.subject = "trutim.events.dispatch"
	}

	if d.node == "" {
		d.node = primitive.NewObjectID().Hex()
	}

	if d.nc != nil {
		sub, err := d.nc.Subscribe(d.subject, d.onRemote)
		if err != nil {
			return nil, err
		}

		go func() {
			<-gctx.Done()
			_ = sub.Unsubscribe()
		}()
	}

	return d, nil
}

// Dispatch marshals the event once and delivers it to the group, skipping
// the session identified by excludeSessionID when non-empty.
func (d *Dispatcher) Dispatch(group string, ev interface{}, excludeSessionID string) {
	b, err := json.Marshal(ev)
	if err != nil {
		zap.S().Errorw("dispatch, failed to marshal event",
			"error", err,
			"group", group,
		)

		return
	}

	if d.gctx != nil && d.gctx.Inst().Prometheus != nil {
		d.gctx.Inst().Prometheus.EventsDispatched().Inc()
	}

	d.registry.BroadcastRaw(group, b, excludeSessionID)

	if d.nc == nil {
		return
	}

	env, err := json.Marshal(dispatchEnvelope{
		Node:    d.node,
		Group:   group,
		Exclude: excludeSessionID,
		Payload: b,
	})
	if err != nil {
		return
	}

	if err = d.nc.Publish(d.subject, env); err != nil {
		zap.S().Errorw("dispatch, failed to publish to nats",
			"error", err,
			"group", group,
		)
	}
}

func (d *Dispatcher) onRemote(msg *nats.Msg) {
	env := dispatchEnvelope{}
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		zap.S().Errorw("dispatch, invalid envelope from nats", "error", err)

		return
	}

	// our own publications come back on the subject; skip them
	if env.Node == d.node {
		return
	}

	d.registry.BroadcastRaw(env.Group, env.Payload, env.Exclude)
}
