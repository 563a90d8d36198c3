package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type RoomID string

const (
	LobbyRoomID   RoomID = "lobby"
	LobbyRoomName        = "Lobby"
)

const MaxRoomNameLen = 64

// Room is a chat scope. It carries membership only, no live state.
type Room struct {
	ID        RoomID
	Name      string
	OwnerID   ParticipantID
	Members   map[ParticipantID]string
	IsPrivate bool
	CreatedAt UnixMillis
}

func NewRoomID() RoomID {
	return RoomID("room-" + uuid.NewString())
}

func NewRoom(id RoomID, name string, owner ParticipantID, private bool, now time.Time) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		OwnerID:   owner,
		Members:   make(map[ParticipantID]string),
		IsPrivate: private,
		CreatedAt: Millis(now),
	}
}

func (r *Room) IsLobby() bool { return r.ID == LobbyRoomID }

func (r *Room) HasMember(id ParticipantID) bool {
	_, ok := r.Members[id]
	return ok
}

// RoomState is the wire view of a room.
type RoomState struct {
	ID          RoomID                   `json:"id"`
	Name        string                   `json:"name"`
	OwnerID     ParticipantID            `json:"ownerId"`
	Members     []ParticipantID          `json:"members"`
	MemberNames map[ParticipantID]string `json:"memberNames"`
	IsPrivate   bool                     `json:"isPrivate"`
	CreatedAt   UnixMillis               `json:"createdAt"`
}

func (r *Room) Snapshot() RoomState {
	members := lo.Keys(r.Members)
	slices.Sort(members)
	names := make(map[ParticipantID]string, len(r.Members))
	for id, name := range r.Members {
		names[id] = name
	}
	return RoomState{
		ID:          r.ID,
		Name:        r.Name,
		OwnerID:     r.OwnerID,
		Members:     members,
		MemberNames: names,
		IsPrivate:   r.IsPrivate,
		CreatedAt:   r.CreatedAt,
	}
}
