package query

import (
	"context"

	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (q *Query) RoomByID(ctx context.Context, id primitive.ObjectID) (structures.Room, error) {
	room := structures.Room{}

	err := q.mongo.Collection(mongo.CollectionNameRooms).FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return room, errors.ErrUnknownRoom()
		}

		return room, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return room, nil
}

// ChannelInRoom resolves a channel only if it belongs to the given room.
// Cross-room references resolve to not-found.
func (q *Query) ChannelInRoom(ctx context.Context, roomID primitive.ObjectID, channelID primitive.ObjectID) (structures.Channel, error) {
	ch := structures.Channel{}

	err := q.mongo.Collection(mongo.CollectionNameChannels).FindOne(ctx, bson.M{
		"_id":     channelID,
		"room_id": roomID,
	}).Decode(&ch)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ch, errors.ErrUnknownRoom().SetDetail("no such channel in room")
		}

		return ch, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return ch, nil
}
