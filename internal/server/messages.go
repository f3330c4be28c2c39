package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// inbound events
const (
	EventVideoCall       = "video-call"
	EventLeaveRoom       = "leave-room"
	EventOffer           = "offer"
	EventAnswer          = "answer"
	EventICECandidate    = "ice-candidate"
	EventToggleEditor    = "toggle-editor"
	EventToggleQuestions = "toggle-questions"
	EventGetDocument     = "get-document"
	EventSendChanges     = "send-changes"
	EventChatRoom        = "chat-room"
	EventNewChatMessage  = "NEW_CHAT_MESSAGE_EVENT"
)

// outbound events
const (
	EventConnected    = "connected"
	EventRoomInfo     = "room-info"
	EventRoomFull     = "room-full"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventLoadDocument = "load-document"
	EventRecvChanges  = "recv-changes"
	EventGetMessage   = "get-message"
)

var errMissingField = errors.New("missing required field")

// ClientMessage is one decoded frame from a connection.
type ClientMessage struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	client *Client         `json:"-"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type VideoCall struct {
	RoomId   string `json:"roomId"`
	UserName string `json:"userName"`
}

type LeaveRoom struct {
	RoomId string `json:"roomId"`
}

type Offer struct {
	RoomId   string          `json:"roomId"`
	To       string          `json:"to"`
	Signal   json.RawMessage `json:"signal"`
	UserName string          `json:"userName"`
}

type Answer struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type ICECandidate struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

type Toggle struct {
	RoomId  string `json:"roomId"`
	Enabled bool   `json:"enabled"`
}

type Connected struct {
	UserId   string `json:"userId"`
	UserName string `json:"userName"`
}

type RoomInfo struct {
	UserCount       int      `json:"userCount"`
	RoomId          string   `json:"roomId"`
	UserName        string   `json:"userName"`
	ExistingMembers []string `json:"existingMembers"`
}

type RoomFull struct {
	RoomId    string `json:"roomId"`
	UserCount int    `json:"userCount"`
	Message   string `json:"message"`
}

type Presence struct {
	UserId   string `json:"userId"`
	UserName string `json:"userName"`
	RoomId   string `json:"roomId"`
}

type RelayedOffer struct {
	RoomId   string          `json:"roomId,omitempty"`
	Signal   json.RawMessage `json:"signal"`
	From     string          `json:"from"`
	UserName string          `json:"userName"`
}

type RelayedAnswer struct {
	Signal   json.RawMessage `json:"signal"`
	From     string          `json:"from"`
	UserName string          `json:"userName"`
}

type RelayedICECandidate struct {
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
	UserName  string          `json:"userName"`
}

type RelayedToggle struct {
	RoomId  string `json:"roomId"`
	Enabled bool   `json:"enabled"`
	From    string `json:"from"`
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: data", errMissingField)
	}
	return json.Unmarshal(raw, v)
}

// decodeRoomRef accepts either a bare JSON string or an object carrying the
// id under field.
func decodeRoomRef(raw json.RawMessage, field string) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: %s", errMissingField, field)
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		if id == "" {
			return "", fmt.Errorf("%w: %s", errMissingField, field)
		}
		return id, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode %s: %w", field, err)
	}
	if err := json.Unmarshal(obj[field], &id); err != nil || id == "" {
		return "", fmt.Errorf("%w: %s", errMissingField, field)
	}

	return id, nil
}
