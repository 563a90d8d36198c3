package orch

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/metrics"
)

// Orchestrator owns the connection lifecycle that spans the registry and both stores.
type Orchestrator struct {
	Registry  *app.Registry
	Sessions  *app.SessionStore
	Rooms     *app.RoomStore
	Broadcast *app.Broadcaster
	Metrics   *metrics.Metrics
}

// New wires fresh stores around one registry.
func New(policy app.Policy, m *metrics.Metrics, opts ...app.StoreOption) *Orchestrator {
	reg := app.NewRegistry()
	return &Orchestrator{
		Registry:  reg,
		Sessions:  app.NewSessionStore(reg, opts...),
		Rooms:     app.NewRoomStore(reg, opts...),
		Broadcast: app.NewBroadcaster(reg, policy, m),
		Metrics:   m,
	}
}

// Departure is what Unregister tore down.
type Departure struct {
	Connection app.Connection
	Session    *app.LeaveResult
	Rooms      []app.RoomLeaveResult
}

// Register creates the connection record and then joins it to the global session
// and the lobby. On return the connection is in exactly one session.
func (o *Orchestrator) Register(
	cid core.ConnectionID,
	signal core.SignalConnection,
	username string,
	cursor domain.CursorConfig,
	pid domain.ParticipantID,
) (app.Connection, error) {
	p, err := domain.NewParticipant(pid, username)
	if err != nil {
		return app.Connection{}, fmt.Errorf("register %s: %w", cid, err)
	}
	if _, err := o.Registry.Add(cid, signal, *p, cursor); err != nil {
		return app.Connection{}, fmt.Errorf("register %s: %w", cid, err)
	}
	if _, err := o.Sessions.JoinGlobal(cid); err != nil {
		o.Registry.Remove(cid)
		return app.Connection{}, fmt.Errorf("register %s: join global session: %w", cid, err)
	}
	if _, err := o.Rooms.Join(cid, domain.LobbyRoomID); err != nil {
		o.Sessions.Detach(cid)
		o.Registry.Remove(cid)
		return app.Connection{}, fmt.Errorf("register %s: join lobby: %w", cid, err)
	}
	o.refresh()

	conn, _ := o.Registry.Get(cid)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("user", string(pid)).Str("username", username).Msg("registered")
	return conn, nil
}

// Unregister tears down every membership and removes the record.
// Unknown or already removed connections return false.
func (o *Orchestrator) Unregister(cid core.ConnectionID) (*Departure, bool) {
	conn, ok := o.Registry.Get(cid)
	if !ok {
		return nil, false
	}
	dep := &Departure{Connection: conn}
	dep.Session = o.Sessions.Detach(cid)
	dep.Rooms = o.Rooms.LeaveAll(cid)
	if removed, ok := o.Registry.Remove(cid); ok {
		dep.Connection = removed
	}
	o.refresh()
	log.Info().Str("module", "orch").Str("cid", string(cid)).Msg("unregistered")
	return dep, true
}

// OnDisconnect unregisters cid and tells the remaining participants.
func (o *Orchestrator) OnDisconnect(cid core.ConnectionID) {
	dep, ok := o.Unregister(cid)
	if !ok {
		return
	}
	if dep.Session != nil {
		o.AnnounceSessionLeave(cid, dep.Session)
	}
	for i := range dep.Rooms {
		o.AnnounceRoomLeave(cid, &dep.Rooms[i])
	}
}

func (o *Orchestrator) refresh() {
	o.Metrics.SetPopulation(o.Registry.Count(), o.Sessions.Count(), o.Rooms.Count())
}
