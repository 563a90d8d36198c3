package app

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
)

var (
	ErrUnknownRoom = errors.New("unknown room")
	ErrNotInRoom   = errors.New("not in room")
)

// RoomLeaveResult describes one connection leaving one room.
type RoomLeaveResult struct {
	Room    domain.RoomState
	Member  domain.Participant
	// Removed is set when no other connection of the participant remains in the room.
	Removed bool
	Deleted bool
}

// RoomStore is the in-memory catalog of chat rooms. Membership is additive:
// a connection may sit in any number of rooms.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
	reg   *Registry
	now   func() time.Time
}

func NewRoomStore(reg *Registry, opts ...StoreOption) *RoomStore {
	o := buildOptions(opts)
	s := &RoomStore{
		rooms: make(map[domain.RoomID]*domain.Room),
		reg:   reg,
		now:   o.now,
	}
	lobby := domain.NewRoom(domain.LobbyRoomID, domain.LobbyRoomName, "", false, o.now())
	s.rooms[lobby.ID] = lobby
	return s
}

func (s *RoomStore) Create(cid core.ConnectionID, name string, private bool) (domain.RoomState, error) {
	if name == "" || len(name) > domain.MaxRoomNameLen {
		return domain.RoomState{}, fmt.Errorf("%w: room name must be 1..%d bytes", ErrInvalidName, domain.MaxRoomNameLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.reg.Get(cid)
	if !ok {
		return domain.RoomState{}, ErrUnknownConnection
	}
	room := domain.NewRoom(domain.NewRoomID(), name, conn.Participant.ID, private, s.now())
	room.Members[conn.Participant.ID] = conn.Participant.Username
	s.rooms[room.ID] = room
	s.reg.AddRoom(cid, room.ID)
	log.Info().Str("module", "app.rooms").Str("cid", string(cid)).Str("room", string(room.ID)).
		Str("name", name).Bool("private", private).Msg("room created")
	return room.Snapshot(), nil
}

// Join is idempotent.
func (s *RoomStore) Join(cid core.ConnectionID, rid domain.RoomID) (domain.RoomState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.reg.Get(cid)
	if !ok {
		return domain.RoomState{}, ErrUnknownConnection
	}
	room, ok := s.rooms[rid]
	if !ok {
		return domain.RoomState{}, ErrUnknownRoom
	}
	room.Members[conn.Participant.ID] = conn.Participant.Username
	s.reg.AddRoom(cid, rid)
	log.Info().Str("module", "app.rooms").Str("cid", string(cid)).Str("room", string(rid)).Msg("room joined")
	return room.Snapshot(), nil
}

// Leave removes the connection from the room and deletes the room once it is empty.
// The lobby is never deleted.
func (s *RoomStore) Leave(cid core.ConnectionID, rid domain.RoomID) (*RoomLeaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil, ErrUnknownConnection
	}
	room, ok := s.rooms[rid]
	if !ok {
		return nil, ErrUnknownRoom
	}
	if !s.reg.RemoveRoom(cid, rid) {
		return nil, ErrNotInRoom
	}

	pid := conn.Participant.ID
	stillThere := lo.ContainsBy(s.reg.InRoom(rid), func(c Connection) bool {
		return c.Participant.ID == pid
	})
	if !stillThere {
		delete(room.Members, pid)
	}

	res := &RoomLeaveResult{Member: conn.Participant, Removed: !room.HasMember(pid)}
	if !room.IsLobby() && len(room.Members) == 0 {
		delete(s.rooms, rid)
		res.Deleted = true
		log.Info().Str("module", "app.rooms").Str("room", string(rid)).Msg("room closed")
	}
	res.Room = room.Snapshot()
	log.Info().Str("module", "app.rooms").Str("cid", string(cid)).Str("room", string(rid)).Msg("room left")
	return res, nil
}

// LeaveAll takes the connection out of every room it is in.
func (s *RoomStore) LeaveAll(cid core.ConnectionID) []RoomLeaveResult {
	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil
	}
	out := make([]RoomLeaveResult, 0, len(conn.Rooms))
	for _, rid := range conn.Rooms {
		res, err := s.Leave(cid, rid)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.rooms").Str("cid", string(cid)).Str("room", string(rid)).Msg("leave on teardown")
			continue
		}
		out = append(out, *res)
	}
	return out
}

func (s *RoomStore) Get(rid domain.RoomID) (domain.RoomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[rid]
	if !ok {
		return domain.RoomState{}, false
	}
	return room.Snapshot(), true
}

// List returns rooms visible to viewer: public ones and private ones it belongs to.
func (s *RoomStore) List(viewer core.ConnectionID) []domain.RoomState {
	conn, _ := s.reg.Get(viewer)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomState, 0, len(s.rooms))
	for _, room := range s.rooms {
		if room.IsPrivate && !conn.InRoom(room.ID) {
			continue
		}
		out = append(out, room.Snapshot())
	}
	slices.SortFunc(out, func(a, b domain.RoomState) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Members resolves the room's live members through the registry.
func (s *RoomStore) Members(rid domain.RoomID) ([]domain.Participant, bool) {
	if _, ok := s.Get(rid); !ok {
		return nil, false
	}
	conns := lo.UniqBy(s.reg.InRoom(rid), func(c Connection) domain.ParticipantID {
		return c.Participant.ID
	})
	return lo.Map(conns, func(c Connection, _ int) domain.Participant {
		return c.Participant
	}), true
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
