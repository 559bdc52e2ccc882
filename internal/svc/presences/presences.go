package presences

import (
	"context"

	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/model"
	"github.com/trutim/api/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// GroupName is the single global broadcast group every presence session
// belongs to.
const GroupName = "presence"

// Dispatcher fans an event out to a named group. Implemented by the realtime
// layer's dispatcher.
type Dispatcher interface {
	Dispatch(group string, ev interface{}, excludeSessionID string)
}

// PresenceStore persists a user's presence flags.
type PresenceStore interface {
	SetUserPresence(ctx context.Context, userID primitive.ObjectID, online bool, status structures.UserStatus) error
}

// OnlineQuery lists currently-online users for the connect snapshot.
type OnlineQuery interface {
	UsersOnline(ctx context.Context) ([]structures.User, error)
}

// Instance coordinates presence for the whole user population. Writes are
// last-writer-wins per user; there is no reconciliation between a user's
// tabs, the newest event simply overwrites.
type Instance interface {
	// Connect marks the user online/active and announces it to the presence
	// group, the connecting session included.
	Connect(ctx context.Context, user structures.User) error
	// SetStatus applies a client-requested status. Unknown values coerce to
	// active; the frame is never rejected.
	SetStatus(ctx context.Context, user structures.User, requested string) error
	// Disconnect marks the user offline and announces it.
	Disconnect(ctx context.Context, user structures.User) error
	// Snapshot returns the presence_snapshot event for a newly-connected
	// session.
	Snapshot(ctx context.Context) (events.PresenceSnapshotEvent, error)
}

type inst struct {
	store     PresenceStore
	online    OnlineQuery
	modelizer model.Modelizer
	dispatch  Dispatcher
}

func New(opt Options) Instance {
	return &inst{
		store:     opt.Store,
		online:    opt.Online,
		modelizer: opt.Modelizer,
		dispatch:  opt.Dispatch,
	}
}

type Options struct {
	Store     PresenceStore
	Online    OnlineQuery
	Modelizer model.Modelizer
	Dispatch  Dispatcher
}

func (p *inst) Connect(ctx context.Context, user structures.User) error {
	return p.apply(ctx, user, true, structures.UserStatusActive)
}

func (p *inst) SetStatus(ctx context.Context, user structures.User, requested string) error {
	return p.apply(ctx, user, true, structures.ParseUserStatus(requested))
}

func (p *inst) Disconnect(ctx context.Context, user structures.User) error {
	return p.apply(ctx, user, false, structures.UserStatusOffline)
}

func (p *inst) apply(ctx context.Context, user structures.User, online bool, status structures.UserStatus) error {
	if err := p.store.SetUserPresence(ctx, user.ID, online, status); err != nil {
		// the transition's event is withheld; the session stays connected
		zap.S().Errorw("presences, failed to persist presence",
			"error", err,
			"user_id", user.ID,
		)

		return err
	}

	p.dispatch.Dispatch(GroupName, events.NewPresenceUpdate(user.ID.Hex(), string(status), online), "")

	return nil
}

func (p *inst) Snapshot(ctx context.Context) (events.PresenceSnapshotEvent, error) {
	users, err := p.online.UsersOnline(ctx)
	if err != nil {
		return events.PresenceSnapshotEvent{}, err
	}

	presence := make(map[string]model.PresenceModel, len(users))
	for _, u := range users {
		presence[u.ID.Hex()] = p.modelizer.Presence(u)
	}

	return events.PresenceSnapshotEvent{
		Type:     events.EventTypePresenceSnapshot,
		Presence: presence,
	}, nil
}
