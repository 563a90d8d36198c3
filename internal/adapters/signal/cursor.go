package signal

import (
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) handleCursorMove(_ *peer, self app.Connection, m *protocol.CursorMove) {
	member, ok := ctl.Orch.Sessions.UpdatePosition(self.ID, *m.Position)
	if !ok {
		return
	}
	ctl.Orch.Broadcast.ToSession(self.SessionID, protocol.NewEnvelope(protocol.TypeCursorMove, protocol.CursorMoved{
		UserID:   member.ParticipantID,
		Position: member.Position,
	}, member.ParticipantID), self.ID)
}

func (ctl *SignalWSController) handleCursorConfig(_ *peer, self app.Connection, m *protocol.CursorConfigUpdate) {
	member, ok := ctl.Orch.Sessions.UpdateCursorConfig(self.ID, *m.Cursor)
	if !ok {
		return
	}
	ctl.Orch.Broadcast.ToSession(self.SessionID, protocol.NewEnvelope(protocol.TypeCursorConfigUpdate, protocol.CursorConfigured{
		UserID: member.ParticipantID,
		Cursor: member.Cursor,
	}, member.ParticipantID), self.ID)
}

// handleDesktopAction relays icon, window and input events to the rest of the session untouched.
func (ctl *SignalWSController) handleDesktopAction(_ *peer, self app.Connection, m *protocol.DesktopAction) {
	if self.SessionID == "" {
		return
	}
	var payload any
	if len(m.Payload) > 0 {
		payload = m.Payload
	}
	ctl.Orch.Broadcast.ToSession(self.SessionID, protocol.NewEnvelope(m.Kind, payload, self.Participant.ID), self.ID)
}
