package signal

import (
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) handlePing(p *peer, _ app.Connection, _ *protocol.Ping) {
	ctl.send(p, protocol.NewEnvelope(protocol.TypePong, nil, ""))
}
