// Package client is the participant-side proxy: it keeps one signal connection alive,
// mirrors the session it is in and rate-limits cursor traffic.
package client

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateError        ConnectionState = "error"
)

// Mirror is the local view of the server state, changed only by inbound messages.
type Mirror struct {
	State             ConnectionState
	Self              *protocol.ConnectAck
	CurrentSession    *domain.SessionState
	RemoteMembers     map[domain.ParticipantID]domain.MemberState
	AvailableSessions []domain.SessionSummary
	Rooms             map[domain.RoomID]domain.RoomState
}

func newMirror() Mirror {
	return Mirror{
		State:         StateDisconnected,
		RemoteMembers: make(map[domain.ParticipantID]domain.MemberState),
		Rooms:         make(map[domain.RoomID]domain.RoomState),
	}
}

func (m Mirror) clone() Mirror {
	out := m
	if m.Self != nil {
		self := *m.Self
		out.Self = &self
	}
	if m.CurrentSession != nil {
		sess := *m.CurrentSession
		sess.Users = slices.Clone(m.CurrentSession.Users)
		out.CurrentSession = &sess
	}
	out.RemoteMembers = maps.Clone(m.RemoteMembers)
	out.AvailableSessions = slices.Clone(m.AvailableSessions)
	out.Rooms = maps.Clone(m.Rooms)
	return out
}

func (m *Mirror) selfID() domain.ParticipantID {
	if m.Self == nil {
		return ""
	}
	return m.Self.UserID
}

// presence covers both the session and the room shape of user-joined / user-left.
type presence struct {
	SessionID domain.SessionID `json:"sessionId"`
	RoomID    domain.RoomID    `json:"roomId"`
	User      json.RawMessage  `json:"user"`
}

// Apply folds one inbound envelope into the mirror. Unknown types are ignored.
func (m *Mirror) Apply(env protocol.RawEnvelope) error {
	switch env.Type {
	case protocol.TypeConnect:
		var ack protocol.ConnectAck
		if err := protocol.DecodePayload(env, &ack); err != nil {
			return err
		}
		m.Self = &ack

	case protocol.TypeSessionState:
		var p protocol.SessionStatePayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		m.CurrentSession = &p.Session
		m.RemoteMembers = make(map[domain.ParticipantID]domain.MemberState, len(p.Session.Users))
		for _, u := range p.Session.Users {
			if u.ParticipantID != m.selfID() {
				m.RemoteMembers[u.ParticipantID] = u
			}
		}

	case protocol.TypeUserJoined, protocol.TypeUserLeft:
		var p presence
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		return m.applyPresence(env.Type == protocol.TypeUserJoined, p)

	case protocol.TypeCursorMove:
		var p protocol.CursorMoved
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		if member, ok := m.RemoteMembers[p.UserID]; ok {
			member.Position = p.Position
			m.RemoteMembers[p.UserID] = member
		}

	case protocol.TypeCursorConfigUpdate:
		var p protocol.CursorConfigured
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		if member, ok := m.RemoteMembers[p.UserID]; ok {
			member.Cursor = p.Cursor
			m.RemoteMembers[p.UserID] = member
		}

	case protocol.TypeSessionList:
		var p protocol.SessionListPayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		m.AvailableSessions = p.Sessions

	case protocol.TypeRoomState:
		var p protocol.RoomStatePayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		m.Rooms[p.Room.ID] = p.Room

	case protocol.TypeRoomList:
		var p protocol.RoomListPayload
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		m.Rooms = make(map[domain.RoomID]domain.RoomState, len(p.Rooms))
		for _, r := range p.Rooms {
			m.Rooms[r.ID] = r
		}

	case protocol.TypeRoomLeave:
		var p protocol.RoomLeaveAck
		if err := protocol.DecodePayload(env, &p); err != nil {
			return err
		}
		if p.Success {
			delete(m.Rooms, p.RoomID)
		}
	}
	return nil
}

func (m *Mirror) applyPresence(joined bool, p presence) error {
	switch {
	case p.SessionID != "":
		if m.CurrentSession == nil || m.CurrentSession.ID != p.SessionID {
			return nil
		}
		var member domain.MemberState
		if err := json.Unmarshal(p.User, &member); err != nil {
			return err
		}
		if member.ParticipantID == m.selfID() {
			return nil
		}
		if joined {
			m.RemoteMembers[member.ParticipantID] = member
		} else {
			delete(m.RemoteMembers, member.ParticipantID)
		}

	case p.RoomID != "":
		room, ok := m.Rooms[p.RoomID]
		if !ok {
			return nil
		}
		var who domain.Participant
		if err := json.Unmarshal(p.User, &who); err != nil {
			return err
		}
		room.MemberNames = maps.Clone(room.MemberNames)
		if joined {
			if !slices.Contains(room.Members, who.ID) {
				room.Members = append(slices.Clone(room.Members), who.ID)
			}
			if room.MemberNames == nil {
				room.MemberNames = make(map[domain.ParticipantID]string)
			}
			room.MemberNames[who.ID] = who.Username
		} else {
			room.Members = slices.DeleteFunc(slices.Clone(room.Members), func(id domain.ParticipantID) bool { return id == who.ID })
			delete(room.MemberNames, who.ID)
		}
		m.Rooms[p.RoomID] = room

	default:
		log.Debug().Str("module", "client").Msg("presence without scope ignored")
	}
	return nil
}
