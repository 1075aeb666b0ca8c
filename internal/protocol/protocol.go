// Package protocol defines the JSON messages exchanged over the signaling
// socket. Every message is an object carrying a string "type".
package protocol

import (
	"encoding/json"
	"errors"
)

type Type string

const (
	TypeChatMessage        Type = "chat-message"
	TypeOffer              Type = "offer"
	TypeAnswer             Type = "answer"
	TypeICECandidate       Type = "ice-candidate"
	TypeScreenShareStarted Type = "screenshare-started"
	TypeScreenShareStopped Type = "screenshare-stopped"
	TypeUserLeft           Type = "user_left"
	TypePing               Type = "ping"

	TypeParticipantJoined   Type = "participant-joined"
	TypeParticipantLeft     Type = "participant-left"
	TypeParticipantPromoted Type = "participant-promoted"
	TypeSessionEnded        Type = "session-ended"
	TypeSessionCancelled    Type = "session-cancelled"
	TypeRecordingStarted    Type = "recording-started"
	TypeRecordingStopped    Type = "recording-stopped"
)

var ErrMalformed = errors.New("protocol: malformed message")

// Relayed reports whether inbound frames of this type are forwarded
// verbatim to the rest of the room.
func (t Type) Relayed() bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeScreenShareStarted, TypeScreenShareStopped:
		return true
	}
	return false
}

type Envelope struct {
	Type Type `json:"type"`
}

// Decode reads only the type tag. Anything that is not a JSON object with
// a non-empty string "type" is malformed.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, ErrMalformed
	}
	if env.Type == "" {
		return Envelope{}, ErrMalformed
	}
	return env, nil
}

type ChatIn struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// ChatOut is the server re-wrap of a chat line; peers only trust the
// sender fields stamped here.
type ChatOut struct {
	Type     Type   `json:"type"`
	SenderID string `json:"sender_id"`
	FullName string `json:"full_name"`
	Text     string `json:"text"`
}

type UserLeft struct {
	Type   Type   `json:"type"`
	UserID string `json:"user_id"`
}

type Ping struct {
	Type Type `json:"type"`
}

type ScreenShare struct {
	Type      Type   `json:"type"`
	SessionID string `json:"session_id"`
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
}

type ParticipantEvent struct {
	Type      Type   `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
}

type SessionEvent struct {
	Type         Type   `json:"type"`
	SessionID    string `json:"session_id"`
	RoomID       string `json:"room_id"`
	Status       string `json:"status"`
	RecordingURL string `json:"recording_url,omitempty"`
}

// PingFrame is shared by every heartbeat tick.
var PingFrame = mustMarshal(Ping{Type: TypePing})

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
