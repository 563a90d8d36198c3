package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
	closed bool
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) CloseWithCode(int, string) { f.Close() }

func (f *fakeSignal) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSignal) types(t *testing.T) []protocol.MessageType {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.MessageType, 0, len(f.frames))
	for _, fr := range f.frames {
		env, err := protocol.DecodeEnvelope(fr)
		require.NoError(t, err)
		out = append(out, env.Type)
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	reg      *Registry
	sessions *SessionStore
	rooms    *RoomStore
	clock    *clock
}

func newFixture() *fixture {
	c := newClock()
	reg := NewRegistry()
	return &fixture{
		reg:      reg,
		sessions: NewSessionStore(reg, WithClock(c.Now)),
		rooms:    NewRoomStore(reg, WithClock(c.Now)),
		clock:    c,
	}
}

// connect mirrors what registration does: record, global session, lobby.
func (f *fixture) connect(t *testing.T, cid core.ConnectionID, pid domain.ParticipantID, name string) *fakeSignal {
	t.Helper()
	sig := &fakeSignal{}
	_, err := f.reg.Add(cid, sig, domain.Participant{ID: pid, Username: name}, domain.DefaultCursor())
	require.NoError(t, err)
	_, err = f.sessions.JoinGlobal(cid)
	require.NoError(t, err)
	_, err = f.rooms.Join(cid, domain.LobbyRoomID)
	require.NoError(t, err)
	return sig
}

func (f *fixture) sessionOf(t *testing.T, cid core.ConnectionID) domain.SessionID {
	t.Helper()
	conn, ok := f.reg.Get(cid)
	require.True(t, ok)
	return conn.SessionID
}
