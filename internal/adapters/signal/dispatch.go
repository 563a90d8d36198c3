package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

// peer is the per-socket state owned by one readPump.
type peer struct {
	id       core.ConnectionID
	identity domain.ParticipantID
	conn     *WsSignalConn

	registered bool
}

type handlerFunc func(p *peer, self app.Connection, msg protocol.Message)

// handle adapts a typed handler to the dispatch table.
func handle[T any, PT interface {
	*T
	protocol.Message
}](fn func(p *peer, self app.Connection, msg PT)) handlerFunc {
	return func(p *peer, self app.Connection, msg protocol.Message) {
		m, ok := msg.(PT)
		if !ok {
			log.Error().Str("module", "signal").Str("type", string(msg.Type())).Msg("handler type mismatch")
			return
		}
		fn(p, self, m)
	}
}

const desktopRoute = "desktop"

func (ctl *SignalWSController) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		string(protocol.TypeSessionCreate):      handle(ctl.handleSessionCreate),
		string(protocol.TypeSessionJoin):        handle(ctl.handleSessionJoin),
		string(protocol.TypeSessionLeave):       handle(ctl.handleSessionLeave),
		string(protocol.TypeSessionList):        handle(ctl.handleSessionList),
		string(protocol.TypeRoomCreate):         handle(ctl.handleRoomCreate),
		string(protocol.TypeRoomJoin):           handle(ctl.handleRoomJoin),
		string(protocol.TypeRoomLeave):          handle(ctl.handleRoomLeave),
		string(protocol.TypeRoomList):           handle(ctl.handleRoomList),
		string(protocol.TypeCursorMove):         handle(ctl.handleCursorMove),
		string(protocol.TypeCursorConfigUpdate): handle(ctl.handleCursorConfig),
		string(protocol.TypeChatMessage):        handle(ctl.handleChatMessage),
		string(protocol.TypeChatPrivateMessage): handle(ctl.handlePrivateMessage),
		string(protocol.TypeChatStatusUpdate):   handle(ctl.handleStatusUpdate),
		string(protocol.TypeFriendRequest):      handle(ctl.handleFriendRequest),
		string(protocol.TypeUserList):           handle(ctl.handleUserList),
		string(protocol.TypePing):               handle(ctl.handlePing),
		desktopRoute:                            handle(ctl.handleDesktopAction),
	}
}

func (ctl *SignalWSController) dispatch(p *peer, msg protocol.Message) {
	if m, ok := msg.(*protocol.Connect); ok {
		ctl.handleConnect(p, m)
		return
	}

	self, ok := ctl.Orch.Registry.Get(p.id)
	if !ok {
		ctl.sendError(p, protocol.CodeNotConnected, "Connection is no longer registered")
		return
	}

	route := string(msg.Type())
	if protocol.IsDesktopAction(msg.Type()) {
		route = desktopRoute
	}
	h, ok := ctl.handlers[route]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", route).Msg("no handler")
		return
	}
	h(p, self, msg)
}
