package model

import (
	"time"

	"github.com/trutim/api/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageModel struct {
	ID        primitive.ObjectID  `json:"id"`
	Content   string              `json:"content"`
	Parent    *primitive.ObjectID `json:"parent"`
	Channel   *primitive.ObjectID `json:"channel"`
	Sender    UserPartialModel    `json:"sender"`
	CreatedAt string              `json:"created_at"`
	EditedAt  string              `json:"edited_at,omitempty"`
	// Reactions maps emoji → hex ids of users who reacted
	Reactions map[string][]string  `json:"reactions"`
	ReadBy    []primitive.ObjectID `json:"read_by"`
}

func (x *modelizer) Message(v structures.Message, sender structures.User, readBy []primitive.ObjectID) MessageModel {
	reactions := make(map[string][]string, len(v.Reactions))
	for emoji, userIDs := range v.Reactions {
		ids := make([]string, len(userIDs))
		for i, id := range userIDs {
			ids[i] = id.Hex()
		}

		reactions[emoji] = ids
	}

	if readBy == nil {
		readBy = []primitive.ObjectID{}
	}

	editedAt := ""
	if v.EditedAt != nil {
		editedAt = v.EditedAt.UTC().Format(time.RFC3339)
	}

	return MessageModel{
		ID:        v.ID,
		Content:   v.Content,
		Parent:    v.ParentID,
		Channel:   v.ChannelID,
		Sender:    x.UserPartial(sender),
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		EditedAt:  editedAt,
		Reactions: reactions,
		ReadBy:    readBy,
	}
}
