package query

import (
	"context"

	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageInRoom resolves a message scoped to one room. References into other
// rooms resolve to not-found.
func (q *Query) MessageInRoom(ctx context.Context, roomID primitive.ObjectID, messageID primitive.ObjectID) (structures.Message, error) {
	msg := structures.Message{}

	err := q.mongo.Collection(mongo.CollectionNameMessages).FindOne(ctx, bson.M{
		"_id":     messageID,
		"room_id": roomID,
	}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return msg, errors.ErrUnknownMessage()
		}

		return msg, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return msg, nil
}

// MessagesByRoom lists a room's messages in creation order.
func (q *Query) MessagesByRoom(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]structures.Message, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := q.mongo.Collection(mongo.CollectionNameMessages).Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	messages := []structures.Message{}
	if err = cur.All(ctx, &messages); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return messages, nil
}

// MessageReadBy lists the ids of users holding a read receipt for the message.
func (q *Query) MessageReadBy(ctx context.Context, messageID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := q.mongo.Collection(mongo.CollectionNameMessageReads).Find(ctx, bson.M{"message_id": messageID})
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	reads := []structures.MessageRead{}
	if err = cur.All(ctx, &reads); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	userIDs := make([]primitive.ObjectID, len(reads))
	for i, r := range reads {
		userIDs[i] = r.UserID
	}

	return userIDs, nil
}
