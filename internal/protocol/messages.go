package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/dkeye/Desk/internal/domain"
)

var (
	ErrParse          = errors.New("invalid message format")
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New()

// Message is one decoded inbound message.
type Message interface {
	Type() MessageType
}

type Connect struct {
	Username string               `json:"username" validate:"required,max=36"`
	Cursor   *domain.CursorConfig `json:"cursor,omitempty" validate:"omitempty"`
}

type SessionCreate struct {
	SessionName string `json:"sessionName" validate:"max=64"`
	IsPrivate   bool   `json:"isPrivate"`
}

type SessionJoin struct {
	SessionID domain.SessionID `json:"sessionId" validate:"required,max=128"`
}

type SessionLeave struct{}

type SessionList struct{}

type RoomCreate struct {
	RoomName  string `json:"roomName" validate:"required,max=64"`
	IsPrivate bool   `json:"isPrivate"`
}

type RoomJoin struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,max=128"`
}

type RoomLeave struct {
	RoomID domain.RoomID `json:"roomId" validate:"required,max=128"`
}

type RoomList struct{}

type CursorMove struct {
	Position *domain.Position `json:"position" validate:"required"`
}

type CursorConfigUpdate struct {
	Cursor *domain.CursorConfig `json:"cursor" validate:"required"`
}

// ChatMessage targets a room; an empty RoomID means the lobby.
type ChatMessage struct {
	RoomID domain.RoomID `json:"roomId,omitempty" validate:"max=128"`
	Text   string        `json:"text" validate:"required,max=4096"`
}

type ChatPrivateMessage struct {
	RecipientID domain.ParticipantID `json:"recipientId" validate:"required,max=128"`
	Text        string               `json:"text" validate:"required,max=4096"`
}

type ChatStatusUpdate struct {
	Status       string `json:"status" validate:"required,oneof=online away busy offline"`
	CustomStatus string `json:"customStatus,omitempty" validate:"max=128"`
}

type FriendRequest struct {
	Username string `json:"username" validate:"required,max=36"`
}

type UserList struct{}

type Ping struct{}

// DesktopAction is any icon/window/input event. The payload is opaque to the server.
type DesktopAction struct {
	Kind    MessageType
	Payload json.RawMessage
}

func (Connect) Type() MessageType            { return TypeConnect }
func (SessionCreate) Type() MessageType      { return TypeSessionCreate }
func (SessionJoin) Type() MessageType        { return TypeSessionJoin }
func (SessionLeave) Type() MessageType       { return TypeSessionLeave }
func (SessionList) Type() MessageType        { return TypeSessionList }
func (RoomCreate) Type() MessageType         { return TypeRoomCreate }
func (RoomJoin) Type() MessageType           { return TypeRoomJoin }
func (RoomLeave) Type() MessageType          { return TypeRoomLeave }
func (RoomList) Type() MessageType           { return TypeRoomList }
func (CursorMove) Type() MessageType         { return TypeCursorMove }
func (CursorConfigUpdate) Type() MessageType { return TypeCursorConfigUpdate }
func (ChatMessage) Type() MessageType        { return TypeChatMessage }
func (ChatPrivateMessage) Type() MessageType { return TypeChatPrivateMessage }
func (ChatStatusUpdate) Type() MessageType   { return TypeChatStatusUpdate }
func (FriendRequest) Type() MessageType      { return TypeFriendRequest }
func (UserList) Type() MessageType           { return TypeUserList }
func (Ping) Type() MessageType               { return TypePing }
func (d DesktopAction) Type() MessageType    { return d.Kind }

var decoders = map[MessageType]func() Message{
	TypeConnect:            func() Message { return &Connect{} },
	TypeSessionCreate:      func() Message { return &SessionCreate{} },
	TypeSessionJoin:        func() Message { return &SessionJoin{} },
	TypeSessionLeave:       func() Message { return &SessionLeave{} },
	TypeSessionList:        func() Message { return &SessionList{} },
	TypeRoomCreate:         func() Message { return &RoomCreate{} },
	TypeRoomJoin:           func() Message { return &RoomJoin{} },
	TypeRoomLeave:          func() Message { return &RoomLeave{} },
	TypeRoomList:           func() Message { return &RoomList{} },
	TypeCursorMove:         func() Message { return &CursorMove{} },
	TypeCursorConfigUpdate: func() Message { return &CursorConfigUpdate{} },
	TypeChatMessage:        func() Message { return &ChatMessage{} },
	TypeChatPrivateMessage: func() Message { return &ChatPrivateMessage{} },
	TypeChatStatusUpdate:   func() Message { return &ChatStatusUpdate{} },
	TypeFriendRequest:      func() Message { return &FriendRequest{} },
	TypeUserList:           func() Message { return &UserList{} },
	TypePing:               func() Message { return &Ping{} },
}

// Decode parses and validates one inbound frame. The returned envelope is filled in
// whenever the outer frame parsed, even if the payload did not.
func Decode(data []byte) (Message, RawEnvelope, error) {
	// Text frames are relayed to browsers, which drop the socket on invalid UTF-8.
	if !utf8.Valid(data) {
		return nil, RawEnvelope{}, fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidPayload)
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, RawEnvelope{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if env.Type == "" {
		return nil, env, fmt.Errorf("%w: missing type", ErrParse)
	}

	if IsDesktopAction(env.Type) {
		return &DesktopAction{Kind: env.Type, Payload: env.Payload}, env, nil
	}

	newMsg, ok := decoders[env.Type]
	if !ok {
		return nil, env, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}
	msg := newMsg()
	if err := DecodePayload(env, msg); err != nil {
		return nil, env, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, env, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return msg, env, nil
}
