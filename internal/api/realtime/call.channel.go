package realtime

import (
	"context"

	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/model"
)

// CallChannel relays WebRTC signaling between a call's participants. The
// server never inspects the negotiation payloads; it only stamps the sender's
// identity on them. Nothing is persisted; a call's membership is exactly the
// set of sessions in its group.
type CallChannel struct {
	modelizer model.Modelizer
	dispatch  *Dispatcher
}

func NewCallChannel(modelizer model.Modelizer, dispatch *Dispatcher) *CallChannel {
	return &CallChannel{
		modelizer: modelizer,
		dispatch:  dispatch,
	}
}

func (c *CallChannel) OnOpen(ctx context.Context, s *Session) error {
	s.Join(CallGroup(s.RoomID()))

	return nil
}

func (c *CallChannel) OnEvent(ctx context.Context, s *Session, f events.Frame) {
	payload := map[string]interface{}{}
	if err := f.DecodeInto(&payload); err != nil {
		return
	}

	payload["from_user"] = c.modelizer.UserPartial(s.Actor())

	// the sender already holds its local negotiation state; it must not
	// receive its own offer/answer/candidate back
	c.dispatch.Dispatch(CallGroup(s.RoomID()), payload, s.SessionID())
}

func (c *CallChannel) OnClose(ctx context.Context, s *Session) {
	// every remaining peer tears down its side of the connection
	c.dispatch.Dispatch(CallGroup(s.RoomID()), events.CallLeaveEvent{
		Type:   events.EventTypeUserLeft,
		UserID: s.Actor().ID.Hex(),
	}, "")
}
