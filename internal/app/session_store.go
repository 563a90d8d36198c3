package app

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrUnknownSession    = errors.New("unknown session")
	ErrSessionInactive   = errors.New("session inactive")
	ErrNotInSession      = errors.New("not in a session")
	ErrInvalidName       = errors.New("invalid name")
)

// LeaveResult describes one connection leaving one session.
type LeaveResult struct {
	// Session is the state right after the member was removed.
	Session domain.SessionState
	Member  domain.MemberState
	// Removed is set when the participant has no connection left in the session.
	Removed bool
	// Deleted is set when the leave closed a non-global session.
	Deleted bool
	// Evicted lists other connections moved to the global session because of Deleted.
	Evicted []core.ConnectionID
}

// JoinResult describes a connection entering a session, possibly after leaving another.
type JoinResult struct {
	Session  domain.SessionState
	Member   domain.MemberState
	Previous *LeaveResult
}

// SweptSession is a session removed by SweepInactive.
type SweptSession struct {
	Session domain.SessionState
	Evicted []core.ConnectionID
}

// SessionStore is the in-memory catalog of shared desktops.
// One mutex guards every session; lock order is SessionStore then Registry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
	reg      *Registry
	now      func() time.Time
}

func NewSessionStore(reg *Registry, opts ...StoreOption) *SessionStore {
	o := buildOptions(opts)
	s := &SessionStore{
		sessions: make(map[domain.SessionID]*domain.Session),
		reg:      reg,
		now:      o.now,
	}
	global := domain.NewSession(domain.GlobalSessionID, domain.GlobalSessionName, "", false, o.now())
	s.sessions[global.ID] = global
	return s
}

// Create opens a new session hosted by the connection's participant.
// An empty name defaults to "<username>'s Desktop".
func (s *SessionStore) Create(cid core.ConnectionID, name string, private bool) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil, ErrUnknownConnection
	}
	if name == "" {
		name = conn.Participant.Username + "'s Desktop"
	}
	if len(name) > domain.MaxSessionNameLen {
		return nil, fmt.Errorf("%w: session name too long", ErrInvalidName)
	}

	res := &JoinResult{Previous: s.detachLocked(conn)}
	sess := domain.NewSession(domain.NewSessionID(), name, conn.Participant.ID, private, s.now())
	s.sessions[sess.ID] = sess
	member := s.attachLocked(conn, sess)

	res.Session = sess.Snapshot()
	res.Member = *member
	log.Info().Str("module", "app.sessions").Str("cid", string(cid)).Str("session", string(sess.ID)).
		Str("name", name).Bool("private", private).Msg("session created")
	return res, nil
}

// Join moves the connection into an existing active session.
func (s *SessionStore) Join(cid core.ConnectionID, sid domain.SessionID) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil, ErrUnknownConnection
	}
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, ErrUnknownSession
	}
	if !sess.IsActive {
		return nil, ErrSessionInactive
	}

	res := &JoinResult{}
	if conn.SessionID != sid {
		res.Previous = s.detachLocked(conn)
	}
	member := s.attachLocked(conn, sess)

	res.Session = sess.Snapshot()
	res.Member = *member
	log.Info().Str("module", "app.sessions").Str("cid", string(cid)).Str("session", string(sid)).Msg("session joined")
	return res, nil
}

// Leave takes the connection out of its non-global session and parks it in the
// global session. Leaving while only in the global session is a no-op.
func (s *SessionStore) Leave(cid core.ConnectionID) (*LeaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil, ErrUnknownConnection
	}
	if conn.SessionID == "" || conn.SessionID == domain.GlobalSessionID {
		return nil, ErrNotInSession
	}
	res := s.detachLocked(conn)
	s.attachLocked(conn, s.sessions[domain.GlobalSessionID])
	if res == nil {
		return nil, ErrNotInSession
	}
	log.Info().Str("module", "app.sessions").Str("cid", string(cid)).Str("session", string(res.Session.ID)).
		Bool("deleted", res.Deleted).Msg("session left")
	return res, nil
}

// Detach removes the connection from whatever session it is in without
// re-homing it. Used when the transport goes away.
func (s *SessionStore) Detach(cid core.ConnectionID) *LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.reg.Get(cid)
	if !ok {
		return nil
	}
	return s.detachLocked(conn)
}

// JoinGlobal parks the connection in the global session.
func (s *SessionStore) JoinGlobal(cid core.ConnectionID) (*JoinResult, error) {
	return s.Join(cid, domain.GlobalSessionID)
}

func (s *SessionStore) UpdatePosition(cid core.ConnectionID, pos domain.Position) (domain.MemberState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.memberLocked(cid)
	if !ok {
		return domain.MemberState{}, false
	}
	member.Position = pos
	member.Touch(s.now())
	return *member, true
}

// UpdateCursorConfig always records the config on the connection; the member state
// is only updated, and returned, when the connection is in a session.
func (s *SessionStore) UpdateCursorConfig(cid core.ConnectionID, cursor domain.CursorConfig) (domain.MemberState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reg.SetCursor(cid, cursor) {
		return domain.MemberState{}, false
	}
	member, ok := s.memberLocked(cid)
	if !ok {
		return domain.MemberState{}, false
	}
	member.Cursor = cursor
	member.Touch(s.now())
	return *member, true
}

// SweepInactive deletes every non-global session whose members have all been idle
// for at least maxIdle, and moves their connections to the global session.
func (s *SessionStore) SweepInactive(maxIdle time.Duration) []SweptSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var swept []SweptSession
	for id, sess := range s.sessions {
		if sess.IsGlobal() {
			continue
		}
		idle := true
		for _, m := range sess.Members {
			if !m.IdleSince(now, maxIdle) {
				idle = false
				break
			}
		}
		if !idle {
			continue
		}
		sess.IsActive = false
		delete(s.sessions, id)
		swept = append(swept, SweptSession{
			Session: sess.Snapshot(),
			Evicted: s.evictLocked(id),
		})
		log.Info().Str("module", "app.sessions").Str("session", string(id)).Msg("inactive session swept")
	}
	return swept
}

func (s *SessionStore) Get(sid domain.SessionID) (domain.SessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return domain.SessionState{}, false
	}
	return sess.Snapshot(), true
}

// Members returns the member states of sid, ordered like a snapshot.
func (s *SessionStore) Members(sid domain.SessionID) ([]domain.MemberState, bool) {
	state, ok := s.Get(sid)
	if !ok {
		return nil, false
	}
	return state.Users, true
}

// List returns active sessions visible to viewer: public ones and the one it is in.
func (s *SessionStore) List(viewer core.ConnectionID) []domain.SessionSummary {
	var current domain.SessionID
	if conn, ok := s.reg.Get(viewer); ok {
		current = conn.SessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.IsActive || (sess.IsPrivate && sess.ID != current) {
			continue
		}
		out = append(out, sess.Summary())
	}
	slices.SortFunc(out, func(a, b domain.SessionSummary) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) memberLocked(cid core.ConnectionID) (*domain.MemberState, bool) {
	conn, ok := s.reg.Get(cid)
	if !ok || conn.SessionID == "" {
		return nil, false
	}
	sess, ok := s.sessions[conn.SessionID]
	if !ok {
		return nil, false
	}
	m, ok := sess.Members[conn.Participant.ID]
	return m, ok
}

func (s *SessionStore) attachLocked(conn Connection, sess *domain.Session) *domain.MemberState {
	member := domain.NewMemberState(conn.Participant, conn.Cursor, s.now())
	sess.Members[conn.Participant.ID] = member
	s.reg.SetSession(conn.ID, sess.ID)
	return member
}

// detachLocked removes conn from its current session and applies the deletion rule.
// The member entry survives while another connection of the same participant is
// still in the session.
func (s *SessionStore) detachLocked(conn Connection) *LeaveResult {
	if conn.SessionID == "" {
		return nil
	}
	s.reg.SetSession(conn.ID, "")
	sess, ok := s.sessions[conn.SessionID]
	if !ok {
		return nil
	}

	pid := conn.Participant.ID
	member, ok := sess.Members[pid]
	if !ok {
		member = &domain.MemberState{ParticipantID: pid, Username: conn.Participant.Username}
	}
	removed := true
	for _, other := range s.reg.InSession(sess.ID) {
		if other.Participant.ID == pid {
			removed = false
			break
		}
	}
	if removed {
		delete(sess.Members, pid)
	}

	res := &LeaveResult{Member: *member, Removed: removed}
	if !sess.IsGlobal() && (len(sess.Members) == 0 || (removed && sess.HostID == pid)) {
		sess.IsActive = false
		delete(s.sessions, sess.ID)
		res.Deleted = true
		res.Evicted = s.evictLocked(sess.ID)
		log.Info().Str("module", "app.sessions").Str("session", string(sess.ID)).Msg("session closed")
	}
	res.Session = sess.Snapshot()
	return res
}

// evictLocked moves every connection still pointing at sid into the global session.
func (s *SessionStore) evictLocked(sid domain.SessionID) []core.ConnectionID {
	global := s.sessions[domain.GlobalSessionID]
	var evicted []core.ConnectionID
	for _, c := range s.reg.InSession(sid) {
		s.attachLocked(c, global)
		evicted = append(evicted, c.ID)
	}
	return evicted
}
