package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/protocol"
)

var ErrNotConnected = errors.New("client not connected")

const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultCursorWindow   = 50 * time.Millisecond
	writeWait             = 5 * time.Second
)

type Options struct {
	URL    string
	Header http.Header

	Username string
	Cursor   domain.CursorConfig

	ReconnectDelay time.Duration
	CursorWindow   time.Duration
	Dialer         *websocket.Dialer

	// OnStateChange runs in its own goroutine on every transition.
	OnStateChange func(ConnectionState)
}

type Client struct {
	opts Options

	mu        sync.Mutex
	mirror    Mirror
	ws        *websocket.Conn
	ctx       context.Context
	closing   bool
	reconnect *time.Timer
	subs      map[int]func(protocol.RawEnvelope)
	nextSub   int

	writeMu sync.Mutex
	cursor  *CursorCoalescer
}

func New(opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.CursorWindow <= 0 {
		opts.CursorWindow = DefaultCursorWindow
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Cursor == (domain.CursorConfig{}) {
		opts.Cursor = domain.DefaultCursor()
	}
	c := &Client{
		opts:   opts,
		mirror: newMirror(),
		subs:   make(map[int]func(protocol.RawEnvelope)),
	}
	c.cursor = NewCursorCoalescer(opts.CursorWindow, func(pos domain.Position) {
		if err := c.Send(protocol.TypeCursorMove, protocol.CursorMove{Position: &pos}); err != nil {
			log.Debug().Err(err).Str("module", "client").Msg("cursor flush")
		}
	})
	return c
}

func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.State
}

// Snapshot returns a copy of the mirror.
func (c *Client) Snapshot() Mirror {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.clone()
}

// Subscribe registers fn for every inbound envelope and returns its cancel func.
func (c *Client) Subscribe(fn func(protocol.RawEnvelope)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Connect dials the server. A failed dial leaves the client reconnecting on its own
// until ctx is done or Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.closing = false
	c.mu.Unlock()
	return c.dial()
}

func (c *Client) dial() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return ErrNotConnected
	}
	ctx := c.ctx
	c.reconnect = nil
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	ws, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Str("url", c.opts.URL).Msg("dial failed")
		c.mu.Lock()
		if !c.closing {
			c.setStateLocked(StateError)
			c.scheduleReconnectLocked()
		}
		c.mu.Unlock()
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = ws.Close()
		return ErrNotConnected
	}
	c.ws = ws
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	go c.readLoop(ws)

	cursor := c.opts.Cursor
	return c.Send(protocol.TypeConnect, protocol.Connect{Username: c.opts.Username, Cursor: &cursor})
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.onClosed(ws, err)
			return
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("bad frame from server")
			continue
		}
		c.deliver(env)
	}
}

func (c *Client) deliver(env protocol.RawEnvelope) {
	c.mu.Lock()
	if err := c.mirror.Apply(env); err != nil {
		log.Warn().Err(err).Str("module", "client").Str("type", string(env.Type)).Msg("apply")
	}
	subs := make([]func(protocol.RawEnvelope), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		notify(fn, env)
	}
}

func notify(fn func(protocol.RawEnvelope), env protocol.RawEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "client").Interface("panic", r).Str("type", string(env.Type)).Msg("subscriber panicked")
		}
	}()
	fn(env)
}

// isCleanClose reports whether the peer completed a close handshake.
func isCleanClose(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure
}

func (c *Client) onClosed(ws *websocket.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != ws {
		return
	}
	c.ws = nil
	_ = ws.Close()

	switch {
	case c.closing:
		c.setStateLocked(StateDisconnected)
	case isCleanClose(err):
		log.Info().Err(err).Str("module", "client").Msg("server closed the connection")
		c.setStateLocked(StateDisconnected)
	default:
		log.Warn().Err(err).Str("module", "client").Msg("connection lost")
		c.scheduleReconnectLocked()
	}
}

func (c *Client) scheduleReconnectLocked() {
	if c.closing || c.reconnect != nil || (c.ctx != nil && c.ctx.Err() != nil) {
		return
	}
	c.setStateLocked(StateReconnecting)
	c.reconnect = time.AfterFunc(c.opts.ReconnectDelay, func() {
		_ = c.dial()
	})
}

// Disconnect closes with code 1000 and cancels any pending reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	ws := c.ws
	c.ws = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if ws != nil {
		c.writeMu.Lock()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client disconnect"), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		_ = ws.Close()
	}
}

// Close disconnects and stops the cursor coalescer for good.
func (c *Client) Close() {
	c.cursor.Stop()
	c.Disconnect()
}

// Send writes one envelope. It fails unless the client is connected.
func (c *Client) Send(t protocol.MessageType, payload any) error {
	c.mu.Lock()
	ws := c.ws
	var from domain.ParticipantID
	if c.mirror.Self != nil {
		from = c.mirror.Self.UserID
	}
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}

	b, err := protocol.Encode(protocol.NewEnvelope(t, payload, from))
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", t, err)
	}
	return nil
}

// MoveCursor queues pos; only the latest position in each window goes out.
func (c *Client) MoveCursor(pos domain.Position) {
	c.cursor.Update(pos)
}

func (c *Client) CreateSession(name string, private bool) error {
	return c.Send(protocol.TypeSessionCreate, protocol.SessionCreate{SessionName: name, IsPrivate: private})
}

func (c *Client) JoinSession(id domain.SessionID) error {
	return c.Send(protocol.TypeSessionJoin, protocol.SessionJoin{SessionID: id})
}

func (c *Client) LeaveSession() error {
	return c.Send(protocol.TypeSessionLeave, nil)
}

func (c *Client) ListSessions() error {
	return c.Send(protocol.TypeSessionList, nil)
}

func (c *Client) JoinRoom(id domain.RoomID) error {
	return c.Send(protocol.TypeRoomJoin, protocol.RoomJoin{RoomID: id})
}

func (c *Client) SendChat(room domain.RoomID, text string) error {
	return c.Send(protocol.TypeChatMessage, protocol.ChatMessage{RoomID: room, Text: text})
}

func (c *Client) UpdateCursor(cursor domain.CursorConfig) error {
	return c.Send(protocol.TypeCursorConfigUpdate, protocol.CursorConfigUpdate{Cursor: &cursor})
}

func (c *Client) setStateLocked(s ConnectionState) {
	if c.mirror.State == s {
		return
	}
	c.mirror.State = s
	if cb := c.opts.OnStateChange; cb != nil {
		go cb(s)
	}
}
