// Package protocol defines the wire envelope exchanged over the signal channel and
// decodes inbound frames into one Go type per message type.
package protocol

type MessageType string

// Session and presence.
const (
	TypeConnect            MessageType = "connect"
	TypeSessionCreate      MessageType = "session-create"
	TypeSessionJoin        MessageType = "session-join"
	TypeSessionLeave       MessageType = "session-leave"
	TypeSessionList        MessageType = "session-list"
	TypeSessionState       MessageType = "session-state"
	TypeUserJoined         MessageType = "user-joined"
	TypeUserLeft           MessageType = "user-left"
	TypeUserList           MessageType = "user-list"
	TypeCursorMove         MessageType = "cursor-move"
	TypeCursorConfigUpdate MessageType = "cursor-config-update"
	TypeError              MessageType = "error"
	TypePing               MessageType = "ping"
	TypePong               MessageType = "pong"
)

// Rooms and chat.
const (
	TypeRoomCreate         MessageType = "room-create"
	TypeRoomJoin           MessageType = "room-join"
	TypeRoomLeave          MessageType = "room-leave"
	TypeRoomList           MessageType = "room-list"
	TypeRoomState          MessageType = "room-state"
	TypeChatMessage        MessageType = "chat-message"
	TypeChatPrivateMessage MessageType = "chat-private-message"
	TypeChatStatusUpdate   MessageType = "chat-status-update"
	TypeFriendRequest      MessageType = "friend-request"
)

// Desktop interactions, relayed verbatim to the sender's session.
const (
	TypeIconSelect     MessageType = "icon-select"
	TypeIconDeselect   MessageType = "icon-deselect"
	TypeIconMove       MessageType = "icon-move"
	TypeIconRename     MessageType = "icon-rename"
	TypeIconOpen       MessageType = "icon-open"
	TypeWindowOpen     MessageType = "window-open"
	TypeWindowClose    MessageType = "window-close"
	TypeWindowMove     MessageType = "window-move"
	TypeWindowResize   MessageType = "window-resize"
	TypeWindowFocus    MessageType = "window-focus"
	TypeWindowMinimize MessageType = "window-minimize"
	TypeWindowMaximize MessageType = "window-maximize"
	TypeKeyPress       MessageType = "key-press"
	TypeTextInput      MessageType = "text-input"
)

var desktopTypes = map[MessageType]struct{}{
	TypeIconSelect: {}, TypeIconDeselect: {}, TypeIconMove: {}, TypeIconRename: {}, TypeIconOpen: {},
	TypeWindowOpen: {}, TypeWindowClose: {}, TypeWindowMove: {}, TypeWindowResize: {},
	TypeWindowFocus: {}, TypeWindowMinimize: {}, TypeWindowMaximize: {},
	TypeKeyPress: {}, TypeTextInput: {},
}

func IsDesktopAction(t MessageType) bool {
	_, ok := desktopTypes[t]
	return ok
}

// Error codes carried in an error envelope.
const (
	CodeParseError          = "PARSE_ERROR"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
	CodeNotConnected        = "NOT_CONNECTED"
	CodeRoomCreateFailed    = "ROOM_CREATE_FAILED"
	CodeRoomJoinFailed      = "ROOM_JOIN_FAILED"
	CodeSessionCreateFailed = "SESSION_CREATE_FAILED"
	CodeSessionJoinFailed   = "SESSION_JOIN_FAILED"
	CodeNotInSession        = "NOT_IN_SESSION"
	CodeNotInRoom           = "NOT_IN_ROOM"
	CodeUserNotFound        = "USER_NOT_FOUND"
)
