package structures

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Room struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy   primitive.ObjectID   `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	MemberIDs   []primitive.ObjectID `json:"member_ids" bson:"member_ids"`
	// IsDirect marks a 1-on-1 conversation
	IsDirect bool `json:"is_direct" bson:"is_direct"`
}

// Channel is a named sub-stream within a room. Messages may optionally be
// scoped to one.
type Channel struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RoomID primitive.ObjectID `json:"room_id" bson:"room_id"`
	Name   string             `json:"name" bson:"name"`
}
