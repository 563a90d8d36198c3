package app

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
)

var ErrConnectionExists = errors.New("connection already registered")

type connEntry struct {
	seq         uint64
	participant domain.Participant
	sessionID   domain.SessionID
	rooms       map[domain.RoomID]struct{}
	cursor      domain.CursorConfig
	signal      core.SignalConnection
	connectedAt time.Time
}

// Connection is a read-only copy of a registry record.
type Connection struct {
	ID          core.ConnectionID
	Participant domain.Participant
	SessionID   domain.SessionID
	Rooms       []domain.RoomID
	Cursor      domain.CursorConfig
	Signal      core.SignalConnection
	ConnectedAt time.Time

	seq uint64
}

func (c Connection) InRoom(id domain.RoomID) bool {
	return slices.Contains(c.Rooms, id)
}

// Registry maps live transports to participants and their memberships.
// It never calls into the stores; the stores call into it.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*connEntry
	seq   uint64
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]*connEntry)}
}

func (r *Registry) snapLocked(id core.ConnectionID, e *connEntry) Connection {
	rooms := lo.Keys(e.rooms)
	slices.Sort(rooms)
	return Connection{
		ID:          id,
		Participant: e.participant,
		SessionID:   e.sessionID,
		Rooms:       rooms,
		Cursor:      e.cursor,
		Signal:      e.signal,
		ConnectedAt: e.connectedAt,
		seq:         e.seq,
	}
}

// Add inserts a bare record with no memberships.
func (r *Registry) Add(
	id core.ConnectionID,
	signal core.SignalConnection,
	p domain.Participant,
	cursor domain.CursorConfig,
) (Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return Connection{}, ErrConnectionExists
	}
	r.seq++
	e := &connEntry{
		seq:         r.seq,
		participant: p,
		rooms:       make(map[domain.RoomID]struct{}),
		cursor:      cursor,
		signal:      signal,
		connectedAt: time.Now(),
	}
	r.conns[id] = e
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Str("user", string(p.ID)).Msg("connection added")
	return r.snapLocked(id, e), nil
}

func (r *Registry) Remove(id core.ConnectionID) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Msg("connection removed")
	return r.snapLocked(id, e), true
}

func (r *Registry) Get(id core.ConnectionID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return r.snapLocked(id, e), true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// filter returns matching records ordered by registration.
func (r *Registry) filter(keep func(e *connEntry) bool) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0)
	for id, e := range r.conns {
		if keep(e) {
			out = append(out, r.snapLocked(id, e))
		}
	}
	slices.SortFunc(out, func(a, b Connection) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (r *Registry) All() []Connection {
	return r.filter(func(*connEntry) bool { return true })
}

func (r *Registry) ByParticipant(pid domain.ParticipantID) []Connection {
	return r.filter(func(e *connEntry) bool { return e.participant.ID == pid })
}

// ByDisplayName returns the earliest registered connection using name.
// Display names are not unique, so this is best-effort routing.
func (r *Registry) ByDisplayName(name string) (Connection, bool) {
	matches := r.filter(func(e *connEntry) bool { return e.participant.Username == name })
	if len(matches) == 0 {
		return Connection{}, false
	}
	return matches[0], true
}

func (r *Registry) InSession(sid domain.SessionID) []Connection {
	return r.filter(func(e *connEntry) bool { return e.sessionID == sid })
}

func (r *Registry) InRoom(rid domain.RoomID) []Connection {
	return r.filter(func(e *connEntry) bool {
		_, ok := e.rooms[rid]
		return ok
	})
}

// SetSession records the connection's current session. Only the session store calls it.
func (r *Registry) SetSession(id core.ConnectionID, sid domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.sessionID = sid
	log.Debug().Str("module", "app.registry").Str("cid", string(id)).Str("session", string(sid)).Msg("updated session")
	return true
}

func (r *Registry) AddRoom(id core.ConnectionID, rid domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.rooms[rid] = struct{}{}
	log.Debug().Str("module", "app.registry").Str("cid", string(id)).Str("room", string(rid)).Msg("added room")
	return true
}

func (r *Registry) RemoveRoom(id core.ConnectionID, rid domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	if _, in := e.rooms[rid]; !in {
		return false
	}
	delete(e.rooms, rid)
	log.Debug().Str("module", "app.registry").Str("cid", string(id)).Str("room", string(rid)).Msg("removed room")
	return true
}

func (r *Registry) SetCursor(id core.ConnectionID, cursor domain.CursorConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.cursor = cursor
	return true
}
