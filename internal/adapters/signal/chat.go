package signal

import (
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) handleChatMessage(p *peer, self app.Connection, m *protocol.ChatMessage) {
	rid := m.RoomID
	if rid == "" {
		rid = domain.LobbyRoomID
	}
	if !self.InRoom(rid) {
		ctl.sendError(p, protocol.CodeNotInRoom, "Not a member of this room")
		return
	}
	ctl.Orch.Broadcast.ToRoom(rid, protocol.NewEnvelope(protocol.TypeChatMessage, protocol.ChatDelivery{
		RoomID:     rid,
		Text:       m.Text,
		SenderID:   self.Participant.ID,
		SenderName: self.Participant.Username,
	}, self.Participant.ID), self.ID)
}

// handlePrivateMessage delivers to every connection of the recipient and echoes to the sender.
func (ctl *SignalWSController) handlePrivateMessage(p *peer, self app.Connection, m *protocol.ChatPrivateMessage) {
	targets := ctl.Orch.Registry.ByParticipant(m.RecipientID)
	if len(targets) == 0 {
		ctl.sendError(p, protocol.CodeUserNotFound, "Recipient not found or offline")
		return
	}
	delivery := protocol.PrivateChatDelivery{
		Text:       m.Text,
		SenderID:   self.Participant.ID,
		SenderName: self.Participant.Username,
	}
	env := protocol.NewEnvelope(protocol.TypeChatPrivateMessage, delivery, self.Participant.ID)
	for _, t := range targets {
		if t.ID == self.ID {
			continue
		}
		ctl.Orch.Broadcast.ToConnection(t.ID, env)
	}

	delivery.RecipientID = m.RecipientID
	ctl.send(p, protocol.NewEnvelope(protocol.TypeChatPrivateMessage, delivery, self.Participant.ID))
}

func (ctl *SignalWSController) handleStatusUpdate(_ *peer, self app.Connection, m *protocol.ChatStatusUpdate) {
	ctl.Orch.Broadcast.ToAll(protocol.NewEnvelope(protocol.TypeChatStatusUpdate, protocol.StatusUpdate{
		UserID:       self.Participant.ID,
		Status:       m.Status,
		CustomStatus: m.CustomStatus,
	}, self.Participant.ID), "")
}
