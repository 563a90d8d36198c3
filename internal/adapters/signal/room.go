package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) handleRoomCreate(p *peer, self app.Connection, m *protocol.RoomCreate) {
	room, err := ctl.Orch.Rooms.Create(self.ID, m.RoomName, m.IsPrivate)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(self.ID)).Msg("room create")
		ctl.sendError(p, protocol.CodeRoomCreateFailed, "Failed to create room")
		return
	}
	ctl.send(p, protocol.NewEnvelope(protocol.TypeRoomState, protocol.RoomStatePayload{Room: room}, ""))
	ctl.Orch.AnnounceRoomJoin(self.ID, room, self.Participant)
}

func (ctl *SignalWSController) handleRoomJoin(p *peer, self app.Connection, m *protocol.RoomJoin) {
	room, err := ctl.Orch.Rooms.Join(self.ID, m.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(self.ID)).Str("room", string(m.RoomID)).Msg("room join")
		ctl.sendError(p, protocol.CodeRoomJoinFailed, "Failed to join room")
		return
	}
	ctl.send(p, protocol.NewEnvelope(protocol.TypeRoomState, protocol.RoomStatePayload{Room: room}, ""))
	if !self.InRoom(room.ID) {
		ctl.Orch.AnnounceRoomJoin(self.ID, room, self.Participant)
	}
}

func (ctl *SignalWSController) handleRoomLeave(p *peer, self app.Connection, m *protocol.RoomLeave) {
	res, err := ctl.Orch.Rooms.Leave(self.ID, m.RoomID)
	if err != nil {
		ctl.sendError(p, protocol.CodeNotInRoom, "Not a member of this room")
		return
	}
	ctl.send(p, protocol.NewEnvelope(protocol.TypeRoomLeave, protocol.RoomLeaveAck{RoomID: m.RoomID, Success: true}, ""))
	ctl.Orch.AnnounceRoomLeave(self.ID, res)
}

func (ctl *SignalWSController) handleRoomList(p *peer, self app.Connection, _ *protocol.RoomList) {
	ctl.send(p, protocol.NewEnvelope(protocol.TypeRoomList, protocol.RoomListPayload{
		Rooms: ctl.Orch.Rooms.List(self.ID),
	}, ""))
}
