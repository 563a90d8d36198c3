package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/app/orch"
	"github.com/dkeye/Desk/internal/config"
	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/metrics"
)

// IdentityKey is the gin context key holding the authenticated participant id.
// It is empty when the auth layer could not resolve one.
const IdentityKey = "participant_id"

const writeWait = 5 * time.Second

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Metrics *metrics.Metrics

	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
	limiter    *ConnRateLimiter
	handlers   map[string]handlerFunc
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config, m *metrics.Metrics) *SignalWSController {
	ctl := &SignalWSController{
		Orch:       o,
		Metrics:    m,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
		limiter:    NewConnRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
	ctl.handlers = ctl.routes()
	return ctl
}

type closeMsg struct {
	code   int
	reason string
}

// outbound is either a data frame or a request to close after everything queued
// before it has been written.
type outbound struct {
	frame core.Frame
	close *closeMsg
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan outbound

	mu      sync.RWMutex
	closing bool
	closed  bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	if buffer <= 0 {
		buffer = 32
	}
	return &WsSignalConn{conn: ws, send: make(chan outbound, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.closing {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- outbound{frame: f}:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *WsSignalConn) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// CloseWithCode lets the write pump flush what is queued, then sends a close frame.
func (c *WsSignalConn) CloseWithCode(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.closing {
		return
	}
	c.closing = true
	select {
	case c.send <- outbound{close: &closeMsg{code: code, reason: reason}}:
	default:
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		c.closeLocked()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	cid := core.ConnectionID(uuid.NewString())
	pid := domain.ParticipantID(c.GetString(IdentityKey))
	if pid == "" {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("unauthenticated connection, waiting for connect")
	} else {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", string(pid)).Msg("new WS connection")
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := newWsSignalConn(ws, ctl.sendBuffer)
	p := &peer{id: cid, identity: pid, conn: conn}
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, p)
}
