package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type CollectionName string

const (
	CollectionNameUsers        CollectionName = "users"
	CollectionNameRooms        CollectionName = "rooms"
	CollectionNameChannels     CollectionName = "channels"
	CollectionNameMessages     CollectionName = "messages"
	CollectionNameMessageReads CollectionName = "message_reads"
)

var ErrNoDocuments = mongo.ErrNoDocuments

type (
	Pipeline     = mongo.Pipeline
	WriteModel   = mongo.WriteModel
	IndexModel   = mongo.IndexModel
	UpdateResult = mongo.UpdateResult
)

type Instance interface {
	Collection(CollectionName) *mongo.Collection
	Ping(ctx context.Context) error
	RawClient() *mongo.Client
	RawDatabase() *mongo.Database
}

type SetupOptions struct {
	URI    string
	DB     string
	Direct bool
}

type mongoInst struct {
	client *mongo.Client
	db     *mongo.Database
}

func Setup(ctx context.Context, opt SetupOptions) (Instance, error) {
	clientOptions := options.Client().ApplyURI(opt.URI).SetDirect(opt.Direct)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	database := client.Database(opt.DB)

	inst := &mongoInst{
		client: client,
		db:     database,
	}

	inst.ensureIndexes(ctx)

	return inst, nil
}

func (i *mongoInst) ensureIndexes(ctx context.Context) {
	indexes := map[CollectionName][]IndexModel{
		CollectionNameUsers: {
			{Keys: bson.M{"username": 1}, Options: options.Index().SetUnique(true)},
			{Keys: bson.M{"online": 1}},
		},
		CollectionNameMessages: {
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		CollectionNameMessageReads: {
			// one receipt per (message, user)
			{Keys: bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionNameChannels: {
			{Keys: bson.M{"room_id": 1}},
		},
	}

	for col, models := range indexes {
		if _, err := i.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			zap.S().Errorw("mongo, failed to create indexes",
				"collection", col,
				"error", err,
			)
		}
	}
}

func (i *mongoInst) Collection(name CollectionName) *mongo.Collection {
	return i.db.Collection(string(name))
}

func (i *mongoInst) Ping(ctx context.Context) error {
	return i.client.Ping(ctx, readpref.Primary())
}

func (i *mongoInst) RawClient() *mongo.Client {
	return i.client
}

func (i *mongoInst) RawDatabase() *mongo.Database {
	return i.db
}
