package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
)

func TestSessionStore_GlobalSessionExists(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	global, ok := f.sessions.Get(domain.GlobalSessionID)
	req.True(ok)
	req.Equal(domain.GlobalSessionName, global.Name)
	req.True(global.IsActive)
	req.Equal(1, f.sessions.Count())
}

func TestSessionStore_Create_MovesConnectionOutOfGlobal(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")

	// When alice creates a session without a name
	res, err := f.sessions.Create("c1", "", false)

	// Then she hosts it under the default name and left the global session
	req.NoError(err)
	req.Equal("alice's Desktop", res.Session.Name)
	req.Equal(domain.ParticipantID("u1"), res.Session.HostID)
	req.Len(res.Session.Users, 1)
	req.NotNil(res.Previous)
	req.Equal(domain.GlobalSessionID, res.Previous.Session.ID)
	req.False(res.Previous.Deleted)
	req.Equal(res.Session.ID, f.sessionOf(t, "c1"))

	global, _ := f.sessions.Get(domain.GlobalSessionID)
	req.Empty(global.Users)
}

func TestSessionStore_Create_RejectsLongName(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")

	_, err := f.sessions.Create("c1", string(make([]byte, domain.MaxSessionNameLen+1)), false)
	req.ErrorIs(err, ErrInvalidName)
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))
}

func TestSessionStore_ExactlyOneSession(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")
	f.connect(t, "c2", "u2", "bob")

	first, err := f.sessions.Create("c1", "one", false)
	req.NoError(err)
	second, err := f.sessions.Create("c2", "two", false)
	req.NoError(err)

	// When alice hops into bob's session
	_, err = f.sessions.Join("c1", second.Session.ID)
	req.NoError(err)

	// Then she is a member of exactly that session, and her empty one is gone
	_, ok := f.sessions.Get(first.Session.ID)
	req.False(ok)
	memberships := 0
	for _, sid := range []domain.SessionID{domain.GlobalSessionID, second.Session.ID} {
		s, _ := f.sessions.Get(sid)
		for _, u := range s.Users {
			if u.ParticipantID == "u1" {
				memberships++
			}
		}
	}
	req.Equal(1, memberships)
	req.Equal(second.Session.ID, f.sessionOf(t, "c1"))
}

func TestSessionStore_HostLeave_DeletesSessionAndEvicts(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "host", "u1", "alice")
	f.connect(t, "guest", "u2", "bob")

	created, err := f.sessions.Create("host", "party", false)
	req.NoError(err)
	_, err = f.sessions.Join("guest", created.Session.ID)
	req.NoError(err)

	// When the host leaves
	res, err := f.sessions.Leave("host")

	// Then the session is gone and the guest was moved to the global session
	req.NoError(err)
	req.True(res.Deleted)
	req.Equal([]core.ConnectionID{"guest"}, res.Evicted)
	_, ok := f.sessions.Get(created.Session.ID)
	req.False(ok)
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "guest"))
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "host"))

	_, err = f.sessions.Join("guest", created.Session.ID)
	req.ErrorIs(err, ErrUnknownSession)
}

func TestSessionStore_GuestLeave_KeepsSession(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "host", "u1", "alice")
	f.connect(t, "guest", "u2", "bob")

	created, _ := f.sessions.Create("host", "party", false)
	_, _ = f.sessions.Join("guest", created.Session.ID)

	res, err := f.sessions.Leave("guest")
	req.NoError(err)
	req.True(res.Removed)
	req.False(res.Deleted)
	req.Empty(res.Evicted)

	s, ok := f.sessions.Get(created.Session.ID)
	req.True(ok)
	req.Len(s.Users, 1)
	req.Equal(domain.ParticipantID("u1"), s.Users[0].ParticipantID)
}

func TestSessionStore_Leave_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")
	_, _ = f.sessions.Create("c1", "solo", false)

	_, err := f.sessions.Leave("c1")
	req.NoError(err)

	// A second leave finds the connection parked in the global session
	_, err = f.sessions.Leave("c1")
	req.ErrorIs(err, ErrNotInSession)
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))
	req.Equal(1, f.sessions.Count())
}

func TestSessionStore_SecondConnectionKeepsMember(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "tab1", "u1", "alice")
	f.connect(t, "tab2", "u1", "alice")
	f.connect(t, "guest", "u2", "bob")

	created, _ := f.sessions.Create("tab1", "party", false)
	_, _ = f.sessions.Join("tab2", created.Session.ID)
	_, _ = f.sessions.Join("guest", created.Session.ID)

	// When one of the host's tabs goes away
	res := f.sessions.Detach("tab1")

	// Then the host is still a member through the other tab
	req.NotNil(res)
	req.False(res.Removed)
	req.False(res.Deleted)
	s, ok := f.sessions.Get(created.Session.ID)
	req.True(ok)
	req.Len(s.Users, 2)

	// And the last tab takes the host out
	res = f.sessions.Detach("tab2")
	req.True(res.Removed)
	req.True(res.Deleted)
}

func TestSessionStore_JoinUnknownSession(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")

	_, err := f.sessions.Join("c1", "stc-missing")
	req.ErrorIs(err, ErrUnknownSession)
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))

	_, err = f.sessions.Join("nobody", domain.GlobalSessionID)
	req.ErrorIs(err, ErrUnknownConnection)
}

func TestSessionStore_UpdatePositionAndCursor(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")

	f.clock.Advance(time.Minute)
	member, ok := f.sessions.UpdatePosition("c1", domain.Position{X: 10, Y: 20})
	req.True(ok)
	req.Equal(domain.Position{X: 10, Y: 20}, member.Position)
	req.Equal(domain.Millis(f.clock.Now()), member.LastActivity)

	cursor := domain.CursorConfig{Style: domain.CursorCrosshair, Color: "#123456"}
	member, ok = f.sessions.UpdateCursorConfig("c1", cursor)
	req.True(ok)
	req.Equal(cursor, member.Cursor)

	conn, _ := f.reg.Get("c1")
	req.Equal(cursor, conn.Cursor)

	_, ok = f.sessions.UpdatePosition("nobody", domain.Position{})
	req.False(ok)
}

func TestSessionStore_List_HidesPrivate(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")
	f.connect(t, "c2", "u2", "bob")

	private, _ := f.sessions.Create("c1", "secret", true)
	public, _ := f.sessions.Create("c2", "open", false)

	ids := func(viewer core.ConnectionID) []domain.SessionID {
		var out []domain.SessionID
		for _, s := range f.sessions.List(viewer) {
			out = append(out, s.ID)
		}
		return out
	}
	req.ElementsMatch([]domain.SessionID{domain.GlobalSessionID, private.Session.ID, public.Session.ID}, ids("c1"))
	req.ElementsMatch([]domain.SessionID{domain.GlobalSessionID, public.Session.ID}, ids("c2"))
}

func TestSessionStore_SweepInactive(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")
	f.connect(t, "c2", "u2", "bob")

	stale, _ := f.sessions.Create("c1", "stale", false)
	fresh, _ := f.sessions.Create("c2", "fresh", false)

	// Given bob moved his cursor two minutes after creation
	f.clock.Advance(2 * time.Minute)
	_, ok := f.sessions.UpdatePosition("c2", domain.Position{X: 1, Y: 1})
	req.True(ok)

	// When the sweep runs 31 minutes after creation
	f.clock.Advance(29 * time.Minute)
	swept := f.sessions.SweepInactive(30 * time.Minute)

	// Then only the session idle for 31 minutes is gone
	req.Len(swept, 1)
	req.Equal(stale.Session.ID, swept[0].Session.ID)
	req.False(swept[0].Session.IsActive)
	req.Equal([]core.ConnectionID{"c1"}, swept[0].Evicted)
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))

	_, ok = f.sessions.Get(fresh.Session.ID)
	req.True(ok, "idle for 29 minutes")
	_, ok = f.sessions.Get(domain.GlobalSessionID)
	req.True(ok)
}

func TestSessionStore_SweepNeverTouchesGlobal(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")

	f.clock.Advance(24 * time.Hour)
	req.Empty(f.sessions.SweepInactive(30 * time.Minute))
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))
}

func TestSessionStore_Members(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u2", "bob")
	f.connect(t, "c2", "u1", "alice")

	members, ok := f.sessions.Members(domain.GlobalSessionID)
	req.True(ok)
	req.Len(members, 2)
	req.Equal("alice", members[0].Username)

	_, ok = f.sessions.Members("stc-missing")
	req.False(ok)
}
