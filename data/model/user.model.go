package model

import (
	"fmt"
	"strings"

	"github.com/trutim/api/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserModel struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Title     string             `json:"title"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Online    bool               `json:"online"`
	Status    string             `json:"status"`
	LastSeen  int64              `json:"last_seen,omitempty"`
}

// UserPartialModel carries the sender display fields attached to room and
// call events.
type UserPartialModel struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Title    string             `json:"title"`
}

func (x *modelizer) User(v structures.User) UserModel {
	return UserModel{
		ID:        v.ID,
		Username:  v.Username,
		Title:     v.Title,
		AvatarURL: x.avatarURL(v),
		Online:    v.Online,
		Status:    string(v.Status),
		LastSeen:  v.LastSeen.UnixMilli(),
	}
}

func (x *modelizer) UserPartial(v structures.User) UserPartialModel {
	return UserPartialModel{
		ID:       v.ID,
		Username: v.Username,
		Title:    v.Title,
	}
}

func (x *modelizer) avatarURL(v structures.User) string {
	if v.AvatarURL == "" {
		return ""
	}

	if strings.HasPrefix(v.AvatarURL, "http") {
		return v.AvatarURL
	}

	return fmt.Sprintf("%s/%s", x.cdnURL, strings.TrimPrefix(v.AvatarURL, "/"))
}
