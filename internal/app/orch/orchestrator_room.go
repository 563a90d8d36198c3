package orch

import (
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

func (o *Orchestrator) AnnounceRoomJoin(cid core.ConnectionID, room domain.RoomState, who domain.Participant) {
	env := protocol.NewEnvelope(protocol.TypeUserJoined, protocol.RoomPresence{RoomID: room.ID, User: who}, who.ID)
	o.Broadcast.ToRoom(room.ID, env, cid)
	o.refresh()
}

func (o *Orchestrator) AnnounceRoomLeave(cid core.ConnectionID, res *app.RoomLeaveResult) {
	if res.Removed && !res.Deleted {
		env := protocol.NewEnvelope(protocol.TypeUserLeft, protocol.RoomPresence{RoomID: res.Room.ID, User: res.Member}, res.Member.ID)
		o.Broadcast.ToRoom(res.Room.ID, env, cid)
	}
	o.refresh()
}
