package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/domain"
)

func TestRegistry_Add_Remove(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	conn, err := reg.Add("c1", &fakeSignal{}, domain.Participant{ID: "u1", Username: "alice"}, domain.DefaultCursor())
	req.NoError(err)
	req.Equal(domain.ParticipantID("u1"), conn.Participant.ID)
	req.Empty(conn.SessionID)
	req.Empty(conn.Rooms)
	req.Equal(1, reg.Count())

	_, err = reg.Add("c1", &fakeSignal{}, domain.Participant{ID: "u1", Username: "alice"}, domain.DefaultCursor())
	req.ErrorIs(err, ErrConnectionExists)

	removed, ok := reg.Remove("c1")
	req.True(ok)
	req.Equal(domain.ParticipantID("u1"), removed.Participant.ID)
	_, ok = reg.Remove("c1")
	req.False(ok)
	req.Zero(reg.Count())
}

func TestRegistry_Lookups(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	_, _ = reg.Add("c1", &fakeSignal{}, domain.Participant{ID: "u1", Username: "alice"}, domain.DefaultCursor())
	_, _ = reg.Add("c2", &fakeSignal{}, domain.Participant{ID: "u1", Username: "alice"}, domain.DefaultCursor())
	_, _ = reg.Add("c3", &fakeSignal{}, domain.Participant{ID: "u2", Username: "bob"}, domain.DefaultCursor())

	req.True(reg.SetSession("c1", "s1"))
	req.True(reg.SetSession("c3", "s1"))
	req.False(reg.SetSession("missing", "s1"))
	req.True(reg.AddRoom("c2", "r1"))

	req.Len(reg.ByParticipant("u1"), 2)
	req.Len(reg.InSession("s1"), 2)
	req.Len(reg.InRoom("r1"), 1)

	// The earliest registration wins a display-name lookup.
	byName, ok := reg.ByDisplayName("alice")
	req.True(ok)
	req.Equal("c1", string(byName.ID))
	_, ok = reg.ByDisplayName("carol")
	req.False(ok)

	req.True(reg.RemoveRoom("c2", "r1"))
	req.False(reg.RemoveRoom("c2", "r1"))
	req.Empty(reg.InRoom("r1"))

	cursor := domain.CursorConfig{Style: domain.CursorHand, Color: "#00FF00"}
	req.True(reg.SetCursor("c3", cursor))
	conn, ok := reg.Get("c3")
	req.True(ok)
	req.Equal(cursor, conn.Cursor)
}
