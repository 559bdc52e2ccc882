package model

import (
	"github.com/trutim/api/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Modelizer converts persisted documents into the wire models that are
// serialized onto client sockets.
type Modelizer interface {
	User(v structures.User) UserModel
	UserPartial(v structures.User) UserPartialModel
	Message(v structures.Message, sender structures.User, readBy []primitive.ObjectID) MessageModel
	Presence(v structures.User) PresenceModel
}

type modelizer struct {
	cdnURL string
}

func NewInstance(opt ModelInstanceOptions) Modelizer {
	return &modelizer{
		cdnURL: opt.CDN,
	}
}

type ModelInstanceOptions struct {
	CDN string
}

type PresenceModel struct {
	Status string `json:"status"`
	Online bool   `json:"online"`
}

func (x *modelizer) Presence(v structures.User) PresenceModel {
	return PresenceModel{
		Status: string(v.Status),
		Online: v.Online,
	}
}
