package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) sendSessionState(p *peer, state domain.SessionState) {
	ctl.send(p, protocol.NewEnvelope(protocol.TypeSessionState, protocol.SessionStatePayload{Session: state}, ""))
}

func (ctl *SignalWSController) handleSessionCreate(p *peer, self app.Connection, m *protocol.SessionCreate) {
	res, err := ctl.Orch.Sessions.Create(self.ID, m.SessionName, m.IsPrivate)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(self.ID)).Msg("session create")
		ctl.sendError(p, protocol.CodeSessionCreateFailed, "Failed to create session")
		return
	}
	ctl.sendSessionState(p, res.Session)
	ctl.Orch.AnnounceSessionJoin(self.ID, res)
}

func (ctl *SignalWSController) handleSessionJoin(p *peer, self app.Connection, m *protocol.SessionJoin) {
	res, err := ctl.Orch.Sessions.Join(self.ID, m.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(self.ID)).Str("session", string(m.SessionID)).Msg("session join")
		ctl.sendError(p, protocol.CodeSessionJoinFailed, "Failed to join session")
		return
	}
	ctl.sendSessionState(p, res.Session)
	ctl.Orch.AnnounceSessionJoin(self.ID, res)
}

func (ctl *SignalWSController) handleSessionLeave(p *peer, self app.Connection, _ *protocol.SessionLeave) {
	res, err := ctl.Orch.Sessions.Leave(self.ID)
	if err != nil {
		ctl.sendError(p, protocol.CodeNotInSession, "Not in a session")
		return
	}
	ctl.Orch.AnnounceSessionLeave(self.ID, res)
	ctl.send(p, protocol.NewEnvelope(protocol.TypeSessionLeave, protocol.SessionLeaveAck{Success: true}, ""))
	ctl.Orch.WelcomeToGlobal(self.ID)
}

func (ctl *SignalWSController) handleSessionList(p *peer, self app.Connection, _ *protocol.SessionList) {
	ctl.send(p, protocol.NewEnvelope(protocol.TypeSessionList, protocol.SessionListPayload{
		Sessions: ctl.Orch.Sessions.List(self.ID),
	}, ""))
}
