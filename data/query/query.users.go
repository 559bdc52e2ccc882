package query

import (
	"context"
	"time"

	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserByID resolves a user document, with a short-lived cache so a handshake
// storm doesn't translate into a mongo read per connection.
func (q *Query) UserByID(ctx context.Context, id primitive.ObjectID) (structures.User, error) {
	k := q.key("user:" + id.Hex())

	mx := q.mtx(k)
	mx.Lock()
	defer mx.Unlock()

	user := structures.User{}
	if ok := q.getFromMemCache(ctx, k, &user); ok {
		return user, nil
	}

	err := q.mongo.Collection(mongo.CollectionNameUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return structures.DeletedUser, errors.ErrUnknownUser()
		}

		zap.S().Errorw("mongo, failed to find user",
			"error", err,
			"user_id", id,
		)

		return structures.DeletedUser, errors.ErrInternalServerError()
	}

	if err = q.setInMemCache(ctx, k, user, time.Second*30); err != nil {
		zap.S().Errorw("query, failed to cache user", "error", err)
	}

	return user, nil
}

// UsersOnline lists every user currently flagged online, for the presence
// snapshot sent to newly connected sessions.
func (q *Query) UsersOnline(ctx context.Context) ([]structures.User, error) {
	cur, err := q.mongo.Collection(mongo.CollectionNameUsers).Find(ctx, bson.M{"online": true})
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	users := []structures.User{}
	if err = cur.All(ctx, &users); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return users, nil
}
