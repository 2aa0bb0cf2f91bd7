// Package protocol defines the named events exchanged over the websocket and
// their JSON payloads. Frames are {"type": <event name>, "data": <payload>}.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/ChatJet/internal/domain"
)

// Client to server.
const (
	CreateRoom    = "create room"
	JoinRoom      = "join room"
	JoinPublic    = "join public"
	JoinDM        = "join dm"
	LeaveRoom     = "leave room"
	SetName       = "set name"
	RequestUsers  = "request users"
	Typing        = "typing"
	StopTyping    = "stop typing"
	ChatMessage   = "chat message"
	DeleteMessage = "delete message"
	CreatePoll    = "create poll"
	VotePoll      = "vote poll"
	SendDMRequest = "send dm request"
	DMAccepted    = "dm accepted"
	Ping          = "ping"
)

// Server to client. ChatMessage is shared by both directions.
const (
	Color            = "color"
	RoomJoined       = "room joined"
	SystemMessage    = "system message"
	RoomUsers        = "room users"
	UserTyping       = "user typing"
	UserStopTyping   = "user stop typing"
	MessageDeleted   = "message deleted"
	NewPoll          = "new poll"
	UpdatePoll       = "update poll"
	DMRequestReceive = "dm request received"
	JoinDMRoom       = "join dm room"
	Error            = "error"
	Pong             = "pong"
)

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode builds one frame. A nil payload produces an envelope without data.
func Encode(name string, payload any) ([]byte, error) {
	env := Envelope{Type: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", name, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode frame: missing type")
	}
	return env, nil
}

// Unmarshal decodes the payload into v. An absent payload leaves v untouched.
func (e Envelope) Unmarshal(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %q payload: %w", e.Type, err)
	}
	return nil
}

// Client to server payloads.

type CreateRoomPayload struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
	Secret string `json:"password"`
}

type JoinRoomPayload = CreateRoomPayload

type JoinPublicPayload struct {
	Name string `json:"name"`
}

type JoinDMPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type SetNamePayload struct {
	Name string `json:"name"`
}

type ChatMessagePayload struct {
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

type DeleteMessagePayload struct {
	MsgID  string `json:"msgId"`
	RoomID string `json:"roomId"`
}

type CreatePollPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	RoomID   string   `json:"roomId"`
	Creator  string   `json:"creator"`
}

type VotePollPayload struct {
	PollID      string `json:"pollId"`
	OptionIndex int    `json:"optionIndex"`
	Voter       string `json:"voter"`
	VoterKey    string `json:"voterKey,omitempty"`
}

type DMRequestPayload struct {
	TargetID string `json:"targetId"`
	FromName string `json:"fromName,omitempty"`
}

type DMAcceptedPayload struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId,omitempty"`
}

// Server to client payloads. "chat message" carries domain.Message,
// "new poll" domain.Poll, "room users" []domain.Member, "color" and
// "error" and "system message" a bare string, "message deleted" the id.

type RoomJoinedPayload struct {
	RoomID    string `json:"roomId"`
	IsCreator bool   `json:"isCreator"`
}

type TypingPayload struct {
	Name string `json:"name"`
}

type UpdatePollPayload struct {
	PollID     string              `json:"pollId"`
	Options    []domain.PollOption `json:"options"`
	TotalVotes int                 `json:"totalVotes"`
}

type DMRequestReceivedPayload struct {
	FromID   string `json:"fromId"`
	FromName string `json:"fromName"`
}

type JoinDMRoomPayload struct {
	RoomID string `json:"roomId"`
}
