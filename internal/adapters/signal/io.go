package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/protocol"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	defer c.Close()

	var tick <-chan time.Time
	if ctl.pingPeriod > 0 {
		ticker := time.NewTicker(ctl.pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case out, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if out.close != nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(out.close.code, out.close.reason))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, out.frame); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, p *peer) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(p.id)).Msg("readPump closing")
		ctl.limiter.Forget(p.id)
		if p.registered {
			ctl.Orch.OnDisconnect(p.id)
		}
		p.conn.Close()
		cancel()
	}()

	ws := p.conn.conn
	if ctl.pingPeriod > 0 {
		pongWait := ctl.pingPeriod * 10 / 9
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(p.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(p.id)).Msg("readPump read error")
				}
				return
			}
			if ctl.pingPeriod > 0 {
				_ = ws.SetReadDeadline(time.Now().Add(ctl.pingPeriod * 10 / 9))
			}
			ctl.handleSignal(p, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(p *peer, data []byte) {
	if !ctl.limiter.Allow(p.id) {
		log.Debug().Str("module", "signal").Str("cid", string(p.id)).Msg("rate limited, frame dropped")
		return
	}

	msg, env, err := protocol.Decode(data)
	if errors.Is(err, protocol.ErrParse) {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(p.id)).Msg("bad frame")
		ctl.sendError(p, protocol.CodeParseError, "Invalid message format")
		return
	}
	if env.Type != protocol.TypeConnect && !p.registered {
		ctl.rejectUnauthenticated(p, "Must connect first")
		return
	}
	if env.Type == protocol.TypeConnect && p.identity == "" {
		ctl.rejectUnauthenticated(p, "You must be logged in to connect")
		return
	}
	switch {
	case errors.Is(err, protocol.ErrUnknownType):
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown signal")
		return
	case err != nil:
		ctl.sendError(p, protocol.CodeInvalidPayload, err.Error())
		return
	}

	ctl.Metrics.ObserveMessage(string(env.Type))
	ctl.dispatch(p, msg)
}

func (ctl *SignalWSController) send(p *peer, env protocol.Envelope) {
	b, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal")
		return
	}
	if err := p.conn.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(p.id)).Str("type", string(env.Type)).Msg("send failed")
	}
}

func (ctl *SignalWSController) sendError(p *peer, code, message string) {
	ctl.Metrics.ObserveError(code)
	ctl.send(p, protocol.NewError(code, message))
}

func (ctl *SignalWSController) rejectUnauthenticated(p *peer, message string) {
	ctl.sendError(p, protocol.CodeUnauthenticated, message)
	p.conn.CloseWithCode(core.ClosePolicyViolation, "Unauthenticated")
}
