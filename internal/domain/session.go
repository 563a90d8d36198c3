package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

type SessionID string

const (
	GlobalSessionID   SessionID = "global"
	GlobalSessionName           = "Shared Desktop"
)

const MaxSessionNameLen = 64

// Session is a shared desktop. Members are keyed by participant.
type Session struct {
	ID        SessionID
	Name      string
	HostID    ParticipantID
	Members   map[ParticipantID]*MemberState
	IsPrivate bool
	IsActive  bool
	CreatedAt UnixMillis
}

func NewSessionID() SessionID {
	return SessionID("stc-" + uuid.NewString())
}

func NewSession(id SessionID, name string, host ParticipantID, private bool, now time.Time) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		HostID:    host,
		Members:   make(map[ParticipantID]*MemberState),
		IsPrivate: private,
		IsActive:  true,
		CreatedAt: Millis(now),
	}
}

func (s *Session) IsGlobal() bool { return s.ID == GlobalSessionID }

// SessionState is the full wire view of a session.
type SessionState struct {
	ID        SessionID     `json:"id"`
	Name      string        `json:"name"`
	HostID    ParticipantID `json:"hostId"`
	Users     []MemberState `json:"users"`
	IsActive  bool          `json:"isActive"`
	IsPrivate bool          `json:"isPrivate"`
	CreatedAt UnixMillis    `json:"createdAt"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID        SessionID     `json:"id"`
	Name      string        `json:"name"`
	HostID    ParticipantID `json:"hostId"`
	UserCount int           `json:"userCount"`
	IsPrivate bool          `json:"isPrivate"`
	CreatedAt UnixMillis    `json:"createdAt"`
}

// Snapshot copies the session so it can leave the store's lock.
func (s *Session) Snapshot() SessionState {
	users := make([]MemberState, 0, len(s.Members))
	for _, m := range s.Members {
		users = append(users, *m)
	}
	slices.SortFunc(users, func(a, b MemberState) int {
		return cmp.Or(cmp.Compare(a.Username, b.Username), cmp.Compare(a.ParticipantID, b.ParticipantID))
	})
	return SessionState{
		ID:        s.ID,
		Name:      s.Name,
		HostID:    s.HostID,
		Users:     users,
		IsActive:  s.IsActive,
		IsPrivate: s.IsPrivate,
		CreatedAt: s.CreatedAt,
	}
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		Name:      s.Name,
		HostID:    s.HostID,
		UserCount: len(s.Members),
		IsPrivate: s.IsPrivate,
		CreatedAt: s.CreatedAt,
	}
}
