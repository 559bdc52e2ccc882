package mutate

import (
	"context"
	"time"

	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetUserPresence writes a user's presence flags. last_seen advances on every
// write; the newest write wins unconditionally.
func (m *Mutate) SetUserPresence(ctx context.Context, userID primitive.ObjectID, online bool, status structures.UserStatus) error {
	_, err := m.mongo.Collection(mongo.CollectionNameUsers).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"online":    online,
			"status":    status,
			"last_seen": time.Now().UTC(),
		},
	})
	if err != nil {
		return errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return nil
}
