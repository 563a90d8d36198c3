package protocol

import "github.com/dkeye/Desk/internal/domain"

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ConnectAck struct {
	UserID   domain.ParticipantID `json:"userId"`
	Username string               `json:"username"`
	Cursor   domain.CursorConfig  `json:"cursor"`
}

type SessionStatePayload struct {
	Session domain.SessionState `json:"session"`
}

// SessionPresence is sent as user-joined / user-left inside a session.
type SessionPresence struct {
	SessionID domain.SessionID   `json:"sessionId"`
	User      domain.MemberState `json:"user"`
}

// RoomPresence is sent as user-joined / user-left inside a room.
type RoomPresence struct {
	RoomID domain.RoomID      `json:"roomId"`
	User   domain.Participant `json:"user"`
}

type SessionLeaveAck struct {
	Success bool `json:"success"`
}

type SessionListPayload struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

type RoomStatePayload struct {
	Room domain.RoomState `json:"room"`
}

type RoomLeaveAck struct {
	RoomID  domain.RoomID `json:"roomId"`
	Success bool          `json:"success"`
}

type RoomListPayload struct {
	Rooms []domain.RoomState `json:"rooms"`
}

type CursorMoved struct {
	UserID   domain.ParticipantID `json:"userId"`
	Position domain.Position      `json:"position"`
}

type CursorConfigured struct {
	UserID domain.ParticipantID `json:"userId"`
	Cursor domain.CursorConfig  `json:"cursor"`
}

type ChatDelivery struct {
	RoomID     domain.RoomID        `json:"roomId"`
	Text       string               `json:"text"`
	SenderID   domain.ParticipantID `json:"senderId"`
	SenderName string               `json:"senderName"`
}

type PrivateChatDelivery struct {
	RecipientID domain.ParticipantID `json:"recipientId,omitempty"`
	Text        string               `json:"text"`
	SenderID    domain.ParticipantID `json:"senderId"`
	SenderName  string               `json:"senderName"`
}

type StatusUpdate struct {
	UserID       domain.ParticipantID `json:"userId"`
	Status       string               `json:"status"`
	CustomStatus string               `json:"customStatus,omitempty"`
}

type FriendRequestDelivery struct {
	SenderID   domain.ParticipantID `json:"senderId"`
	SenderName string               `json:"senderName"`
}

type UserSummary struct {
	ID        domain.ParticipantID `json:"id"`
	Username  string               `json:"username"`
	SessionID domain.SessionID     `json:"sessionId,omitempty"`
}

type UserListPayload struct {
	Users []UserSummary `json:"users"`
}
