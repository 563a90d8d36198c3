package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

// AnnounceSessionJoin tells the previous session (if any) that cid left and the new
// session that it arrived.
func (o *Orchestrator) AnnounceSessionJoin(cid core.ConnectionID, res *app.JoinResult) {
	if res.Previous != nil {
		o.AnnounceSessionLeave(cid, res.Previous)
	}
	env := protocol.NewEnvelope(protocol.TypeUserJoined, protocol.SessionPresence{
		SessionID: res.Session.ID,
		User:      res.Member,
	}, res.Member.ParticipantID)
	o.Broadcast.ToSession(res.Session.ID, env, cid)
	o.refresh()
}

// AnnounceSessionLeave sends user-left to whoever was sharing the session with cid.
// Nothing is announced while the participant still has another connection there.
// When the session closed, its remaining members were moved to the global session
// and are told so.
func (o *Orchestrator) AnnounceSessionLeave(cid core.ConnectionID, res *app.LeaveResult) {
	if !res.Removed && !res.Deleted {
		o.refresh()
		return
	}
	env := protocol.NewEnvelope(protocol.TypeUserLeft, protocol.SessionPresence{
		SessionID: res.Session.ID,
		User:      res.Member,
	}, res.Member.ParticipantID)
	if res.Deleted {
		o.Broadcast.ToConnections(res.Evicted, env, cid)
		o.NotifyEvicted(res.Evicted)
	} else {
		o.Broadcast.ToSession(res.Session.ID, env, cid)
	}
	o.refresh()
}

// NotifyEvicted sends the global session state to connections whose session was
// closed under them and announces them to the global session.
func (o *Orchestrator) NotifyEvicted(ids []core.ConnectionID) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		o.WelcomeToGlobal(id)
	}
	log.Info().Str("module", "orch").Int("evicted", len(ids)).Msg("evicted connections moved to global session")
}

// WelcomeToGlobal sends the global session state to cid and user-joined to the
// other members of the global session.
func (o *Orchestrator) WelcomeToGlobal(cid core.ConnectionID) {
	conn, ok := o.Registry.Get(cid)
	if !ok || conn.SessionID != domain.GlobalSessionID {
		return
	}
	global, ok := o.Sessions.Get(domain.GlobalSessionID)
	if !ok {
		return
	}
	o.Broadcast.ToConnection(cid, protocol.NewEnvelope(protocol.TypeSessionState, protocol.SessionStatePayload{Session: global}, ""))
	for _, m := range global.Users {
		if m.ParticipantID != conn.Participant.ID {
			continue
		}
		joined := protocol.NewEnvelope(protocol.TypeUserJoined, protocol.SessionPresence{
			SessionID: domain.GlobalSessionID,
			User:      m,
		}, m.ParticipantID)
		o.Broadcast.ToSession(domain.GlobalSessionID, joined, cid)
		return
	}
}

// AnnounceArrival runs right after Register: cid learns the global session and the
// lobby, and everyone already there learns about cid.
func (o *Orchestrator) AnnounceArrival(cid core.ConnectionID) {
	conn, ok := o.Registry.Get(cid)
	if !ok {
		return
	}
	o.WelcomeToGlobal(cid)
	if lobby, ok := o.Rooms.Get(domain.LobbyRoomID); ok {
		o.Broadcast.ToConnection(cid, protocol.NewEnvelope(protocol.TypeRoomState, protocol.RoomStatePayload{Room: lobby}, ""))
		o.AnnounceRoomJoin(cid, lobby, conn.Participant)
	}
}

// OnSwept is the sweeper callback.
func (o *Orchestrator) OnSwept(swept []app.SweptSession) {
	for _, s := range swept {
		o.NotifyEvicted(s.Evicted)
	}
	o.Metrics.ObserveSwept(len(swept))
	o.refresh()
}
