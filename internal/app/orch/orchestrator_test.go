package orch

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/metrics"
	"github.com/dkeye/Desk/internal/protocol"
)

type recorder struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}
func (r *recorder) Close()                    {}
func (r *recorder) CloseWithCode(int, string) {}

func (r *recorder) types(t *testing.T) []protocol.MessageType {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.MessageType
	for _, f := range r.frames {
		env, err := protocol.DecodeEnvelope(f)
		require.NoError(t, err)
		out = append(out, env.Type)
	}
	return out
}

func newOrch() *Orchestrator {
	return New(app.SimplePolicy{}, metrics.New(prometheus.NewRegistry()))
}

func TestRegister_JoinsGlobalSessionAndLobby(t *testing.T) {
	req := require.New(t)
	o := newOrch()

	conn, err := o.Register("c1", &recorder{}, "alice", domain.DefaultCursor(), "u1")
	req.NoError(err)
	req.Equal(domain.GlobalSessionID, conn.SessionID)
	req.True(conn.InRoom(domain.LobbyRoomID))

	global, _ := o.Sessions.Get(domain.GlobalSessionID)
	req.Len(global.Users, 1)
	members, _ := o.Rooms.Members(domain.LobbyRoomID)
	req.Len(members, 1)
}

func TestRegister_RejectsBadIdentity(t *testing.T) {
	req := require.New(t)
	o := newOrch()

	_, err := o.Register("c1", &recorder{}, "", domain.DefaultCursor(), "u1")
	req.ErrorIs(err, domain.ErrUsernameEmpty)
	_, err = o.Register("c1", &recorder{}, "alice", domain.DefaultCursor(), "")
	req.ErrorIs(err, domain.ErrParticipantIDInvalid)
	req.Zero(o.Registry.Count())

	_, err = o.Register("c1", &recorder{}, "alice", domain.DefaultCursor(), "u1")
	req.NoError(err)
	_, err = o.Register("c1", &recorder{}, "alice", domain.DefaultCursor(), "u1")
	req.ErrorIs(err, app.ErrConnectionExists)
}

func TestOnDisconnect_HostLeavesAndGuestIsRehomed(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	host, guest := &recorder{}, &recorder{}
	_, _ = o.Register("host", host, "alice", domain.DefaultCursor(), "u1")
	_, _ = o.Register("guest", guest, "bob", domain.DefaultCursor(), "u2")

	res, err := o.Sessions.Create("host", "party", false)
	req.NoError(err)
	_, err = o.Sessions.Join("guest", res.Session.ID)
	req.NoError(err)

	// When the host's transport goes away
	o.OnDisconnect("host")

	// Then the guest hears about it and lands in the global session
	req.Equal(1, o.Registry.Count())
	conn, ok := o.Registry.Get("guest")
	req.True(ok)
	req.Equal(domain.GlobalSessionID, conn.SessionID)
	req.Contains(guest.types(t), protocol.TypeUserLeft)
	req.Contains(guest.types(t), protocol.TypeSessionState)

	_, ok = o.Sessions.Get(res.Session.ID)
	req.False(ok)

	_, ok = o.Unregister("host")
	req.False(ok)
}

func TestAnnounceArrival_TellsOthers(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	first, second := &recorder{}, &recorder{}
	_, _ = o.Register("c1", first, "alice", domain.DefaultCursor(), "u1")
	o.AnnounceArrival("c1")
	_, _ = o.Register("c2", second, "bob", domain.DefaultCursor(), "u2")
	o.AnnounceArrival("c2")

	req.Equal([]protocol.MessageType{protocol.TypeSessionState, protocol.TypeRoomState}, second.types(t))
	req.Equal([]protocol.MessageType{
		protocol.TypeSessionState, protocol.TypeRoomState,
		protocol.TypeUserJoined, protocol.TypeUserJoined,
	}, first.types(t))
}

func TestOnDisconnect_SecondTabKeepsParticipantPresent(t *testing.T) {
	req := require.New(t)
	o := newOrch()
	bob := &recorder{}
	_, _ = o.Register("a1", &recorder{}, "alice", domain.DefaultCursor(), "u1")
	_, _ = o.Register("a2", &recorder{}, "alice", domain.DefaultCursor(), "u1")
	_, _ = o.Register("b1", bob, "bob", domain.DefaultCursor(), "u2")

	// When one of alice's two tabs closes
	o.OnDisconnect("a1")

	// Then alice is still a member everywhere and bob hears nothing
	global, _ := o.Sessions.Get(domain.GlobalSessionID)
	req.Len(global.Users, 2)
	lobby, _ := o.Rooms.Get(domain.LobbyRoomID)
	req.Contains(lobby.Members, domain.ParticipantID("u1"))
	req.NotContains(bob.types(t), protocol.TypeUserLeft)

	// And the last tab closing is announced once per scope
	o.OnDisconnect("a2")
	req.Equal([]protocol.MessageType{protocol.TypeUserLeft, protocol.TypeUserLeft}, bob.types(t))
}
