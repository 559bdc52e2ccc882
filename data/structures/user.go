package structures

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"`
	Email    string             `json:"email,omitempty" bson:"email,omitempty"`
	// Job title shown next to the username, i.e. "Senior Engineer"
	Title     string     `json:"title,omitempty" bson:"title,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Online    bool       `json:"online" bson:"online"`
	Status    UserStatus `json:"status" bson:"status"`
	LastSeen  time.Time  `json:"last_seen" bson:"last_seen"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

// DeletedUser is the zero-identity stand-in for an unresolvable actor.
var DeletedUser = User{
	Username: "*DeletedUser",
	Status:   UserStatusOffline,
}

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusIdle   UserStatus = "idle"
	// UserStatusOffline is spelled "deactive" on the wire for compatibility
	// with existing clients.
	UserStatusOffline UserStatus = "deactive"
)

// ParseUserStatus maps a client-requested status onto a known value. Unknown
// input coerces to active rather than rejecting the frame.
func ParseUserStatus(s string) UserStatus {
	switch UserStatus(s) {
	case UserStatusActive, UserStatusIdle, UserStatusOffline:
		return UserStatus(s)
	default:
		return UserStatusActive
	}
}
