package events

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType is the "type" discriminator carried by every frame in both
// directions.
type EventType string

const (
	// Shared / inbound

	EventTypeStatus      EventType = "status"
	EventTypeMessage     EventType = "message"
	EventTypeEdit        EventType = "edit"
	EventTypeDelete      EventType = "delete"
	EventTypeTyping      EventType = "typing"
	EventTypeMessageRead EventType = "message_read"
	EventTypeReaction    EventType = "reaction"

	// Outbound

	EventTypePresenceSnapshot EventType = "presence_snapshot"
	EventTypePresenceUpdate   EventType = "presence_update"
	EventTypeMessageEdited    EventType = "message_edited"
	EventTypeMessageDeleted   EventType = "message_deleted"
	EventTypeMessageUpdated   EventType = "message_updated"
	EventTypeUserJoined       EventType = "user_joined"
	EventTypeUserLeft         EventType = "user_left"
)

// Frame is a single decoded inbound frame. Data holds the full original
// payload so per-type bodies can be decoded lazily.
type Frame struct {
	Type EventType
	Data []byte
}

// ParseFrame decodes the type discriminator of an inbound frame. A frame that
// is not a JSON object with a string "type" is an error and should be dropped
// by the caller.
func ParseFrame(data []byte) (Frame, error) {
	var head struct {
		Type EventType `json:"type"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return Frame{}, err
	}

	return Frame{Type: head.Type, Data: data}, nil
}

// DecodeInto unmarshals the frame's full payload into a typed body.
func (f Frame) DecodeInto(v interface{}) error {
	return json.Unmarshal(f.Data, v)
}

type CloseCode uint16

const (
	CloseCodeServerError    CloseCode = 4000 // an error occured on the server's end
	CloseCodeUnknownRoute   CloseCode = 4001 // the client connected to an unknown stream
	CloseCodeInvalidPayload CloseCode = 4002 // the client sent a payload that couldn't be decoded
	CloseCodeAuthFailure    CloseCode = 4003 // the client failed to identify at the handshake
	CloseCodeRestart        CloseCode = 4006 // the server is restarting and the client should reconnect
)

func (c CloseCode) String() string {
	switch c {
	case CloseCodeServerError:
		return "Internal Server Error"
	case CloseCodeUnknownRoute:
		return "Unknown Stream"
	case CloseCodeInvalidPayload:
		return "Invalid Payload"
	case CloseCodeAuthFailure:
		return "Authentication Failed"
	case CloseCodeRestart:
		return "Server is restarting"
	default:
		return "Undocumented Closure"
	}
}
