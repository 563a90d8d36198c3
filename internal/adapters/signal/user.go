package signal

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) handleConnect(p *peer, m *protocol.Connect) {
	if p.identity == "" {
		ctl.rejectUnauthenticated(p, "You must be logged in to connect")
		return
	}
	if p.registered {
		if self, ok := ctl.Orch.Registry.Get(p.id); ok {
			ctl.sendConnectAck(p, self)
		}
		return
	}

	cursor := domain.DefaultCursor()
	if m.Cursor != nil {
		cursor = *m.Cursor
	}
	self, err := ctl.Orch.Register(p.id, p.conn, m.Username, cursor, p.identity)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(p.id)).Msg("connect rejected")
		ctl.sendError(p, protocol.CodeInvalidPayload, err.Error())
		return
	}
	p.registered = true

	ctl.sendConnectAck(p, self)
	ctl.Orch.AnnounceArrival(p.id)
}

func (ctl *SignalWSController) sendConnectAck(p *peer, self app.Connection) {
	ctl.send(p, protocol.NewEnvelope(protocol.TypeConnect, protocol.ConnectAck{
		UserID:   self.Participant.ID,
		Username: self.Participant.Username,
		Cursor:   self.Cursor,
	}, self.Participant.ID))
}

func (ctl *SignalWSController) handleUserList(p *peer, _ app.Connection, _ *protocol.UserList) {
	conns := lo.UniqBy(ctl.Orch.Registry.All(), func(c app.Connection) domain.ParticipantID {
		return c.Participant.ID
	})
	users := lo.Map(conns, func(c app.Connection, _ int) protocol.UserSummary {
		return protocol.UserSummary{ID: c.Participant.ID, Username: c.Participant.Username, SessionID: c.SessionID}
	})
	ctl.send(p, protocol.NewEnvelope(protocol.TypeUserList, protocol.UserListPayload{Users: users}, ""))
}

func (ctl *SignalWSController) handleFriendRequest(p *peer, self app.Connection, m *protocol.FriendRequest) {
	target, ok := ctl.Orch.Registry.ByDisplayName(m.Username)
	if !ok {
		ctl.sendError(p, protocol.CodeUserNotFound, fmt.Sprintf("User %s not found", m.Username))
		return
	}
	ctl.Orch.Broadcast.ToConnection(target.ID, protocol.NewEnvelope(protocol.TypeFriendRequest, protocol.FriendRequestDelivery{
		SenderID:   self.Participant.ID,
		SenderName: self.Participant.Username,
	}, self.Participant.ID))
}
