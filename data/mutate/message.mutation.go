package mutate

import (
	"context"
	"time"

	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CreateMessageOptions struct {
	RoomID    primitive.ObjectID
	SenderID  primitive.ObjectID
	Content   string
	ParentID  *primitive.ObjectID
	ChannelID *primitive.ObjectID
}

func (m *Mutate) CreateMessage(ctx context.Context, opt CreateMessageOptions) (structures.Message, error) {
	msg := structures.Message{
		ID:        primitive.NewObjectID(),
		RoomID:    opt.RoomID,
		ChannelID: opt.ChannelID,
		ParentID:  opt.ParentID,
		SenderID:  opt.SenderID,
		Content:   opt.Content,
		Type:      structures.MessageTypeText,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := m.mongo.Collection(mongo.CollectionNameMessages).InsertOne(ctx, msg); err != nil {
		return structures.Message{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return msg, nil
}

// EditMessage updates a message's content. The filter carries the room and
// sender, so an edit by anyone but the author, or against another room,
// matches nothing and reports not-found.
func (m *Mutate) EditMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, content string) (structures.Message, error) {
	now := time.Now().UTC()

	msg := structures.Message{}

	err := m.mongo.Collection(mongo.CollectionNameMessages).FindOneAndUpdate(ctx, bson.M{
		"_id":       messageID,
		"room_id":   roomID,
		"sender_id": actorID,
	}, bson.M{
		"$set": bson.M{
			"content":   content,
			"edited_at": now,
		},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return msg, errors.ErrUnknownMessage()
		}

		return msg, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return msg, nil
}

// DeleteMessage removes a message, subject to the same sender+room
// authorization filter as EditMessage. Receipts for the message go with it.
func (m *Mutate) DeleteMessage(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID) error {
	res, err := m.mongo.Collection(mongo.CollectionNameMessages).DeleteOne(ctx, bson.M{
		"_id":       messageID,
		"room_id":   roomID,
		"sender_id": actorID,
	})
	if err != nil {
		return errors.ErrInternalServerError().SetDetail(err.Error())
	}

	if res.DeletedCount == 0 {
		return errors.ErrUnknownMessage()
	}

	if _, err = m.mongo.Collection(mongo.CollectionNameMessageReads).DeleteMany(ctx, bson.M{"message_id": messageID}); err != nil {
		return errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return nil
}

// ToggleReaction flips the actor's membership in the emoji's user set. An
// emoji whose set becomes empty is removed entirely. Returns the updated
// message.
func (m *Mutate) ToggleReaction(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageID primitive.ObjectID, emoji string) (structures.Message, error) {
	// serialize concurrent toggles on the same message
	mx := m.mtx("reaction:" + messageID.Hex())
	mx.Lock()
	defer mx.Unlock()

	msg := structures.Message{}

	err := m.mongo.Collection(mongo.CollectionNameMessages).FindOne(ctx, bson.M{
		"_id":     messageID,
		"room_id": roomID,
	}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return msg, errors.ErrUnknownMessage()
		}

		return msg, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	msg.ToggleReaction(actorID, emoji)

	if _, err = m.mongo.Collection(mongo.CollectionNameMessages).UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{
		"$set": bson.M{"reactions": msg.Reactions},
	}); err != nil {
		return structures.Message{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return msg, nil
}

// MarkMessagesRead writes at most one receipt per (message, user) pair,
// skipping messages the actor authored, and returns only the ids that were
// newly marked.
func (m *Mutate) MarkMessagesRead(ctx context.Context, roomID primitive.ObjectID, actorID primitive.ObjectID, messageIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := m.mongo.Collection(mongo.CollectionNameMessages).Find(ctx, bson.M{
		"_id":       bson.M{"$in": messageIDs},
		"room_id":   roomID,
		"sender_id": bson.M{"$ne": actorID},
	})
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	messages := []structures.Message{}
	if err = cur.All(ctx, &messages); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	marked := []primitive.ObjectID{}

	for _, msg := range messages {
		res, err := m.mongo.Collection(mongo.CollectionNameMessageReads).UpdateOne(ctx, bson.M{
			"message_id": msg.ID,
			"user_id":    actorID,
		}, bson.M{
			"$setOnInsert": structures.MessageRead{
				ID:        primitive.NewObjectID(),
				MessageID: msg.ID,
				UserID:    actorID,
				ReadAt:    time.Now().UTC(),
			},
		}, options.Update().SetUpsert(true))
		if err != nil {
			return nil, errors.ErrInternalServerError().SetDetail(err.Error())
		}

		if res.UpsertedCount > 0 {
			marked = append(marked, msg.ID)
		}
	}

	return marked, nil
}
