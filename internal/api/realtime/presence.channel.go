package realtime

import (
	"context"
	"time"

	"github.com/trutim/api/data/events"
	"github.com/trutim/api/internal/svc/presences"
	"go.uber.org/zap"
)

// PresenceChannel is the global presence stream. Every session joins the one
// presence group; status transitions are persisted by the coordinator and
// fanned out to everybody, the reporting session included.
type PresenceChannel struct {
	presences       presences.Instance
	snapshotTimeout time.Duration
}

func NewPresenceChannel(p presences.Instance, snapshotTimeout time.Duration) *PresenceChannel {
	return &PresenceChannel{
		presences:       p,
		snapshotTimeout: snapshotTimeout,
	}
}

func (c *PresenceChannel) OnOpen(ctx context.Context, s *Session) error {
	s.Join(presences.GroupName)

	if err := c.presences.Connect(ctx, s.Actor()); err != nil {
		return err
	}

	if c.snapshotTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.snapshotTimeout)
		defer cancel()
	}

	// the new session converges from a full snapshot; everyone else converges
	// from the presence_update broadcast above
	snapshot, err := c.presences.Snapshot(ctx)
	if err != nil {
		zap.S().Errorw("presence, failed to build snapshot",
			"error", err,
			"actor_id", s.Actor().ID,
		)

		return nil
	}

	return s.Write(snapshot)
}

func (c *PresenceChannel) OnEvent(ctx context.Context, s *Session, f events.Frame) {
	switch f.Type {
	case events.EventTypeStatus:
		body := events.StatusPayload{}
		if err := f.DecodeInto(&body); err != nil {
			return
		}

		_ = c.presences.SetStatus(ctx, s.Actor(), body.Status)
	default:
		// unknown frame types are ignored for forward compatibility
	}
}

func (c *PresenceChannel) OnClose(ctx context.Context, s *Session) {
	_ = c.presences.Disconnect(ctx, s.Actor())
}
