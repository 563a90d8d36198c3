package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Desk/internal/core"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/metrics"
	"github.com/dkeye/Desk/internal/protocol"
)

// Broadcaster delivers envelopes to the connections implied by a target.
// It holds no state of its own and never mutates the stores.
type Broadcaster struct {
	Registry *Registry
	Policy   Policy
	Metrics  *metrics.Metrics
}

func NewBroadcaster(reg *Registry, policy Policy, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{Registry: reg, Policy: policy, Metrics: m}
}

// ToConnection reports whether the envelope was queued for cid.
func (b *Broadcaster) ToConnection(cid core.ConnectionID, env protocol.Envelope) bool {
	conn, ok := b.Registry.Get(cid)
	if !ok {
		return false
	}
	return b.publish([]Connection{conn}, env, "").SentTo == 1
}

func (b *Broadcaster) ToConnections(ids []core.ConnectionID, env protocol.Envelope, exclude core.ConnectionID) core.PublishResult {
	targets := make([]Connection, 0, len(ids))
	for _, id := range ids {
		if conn, ok := b.Registry.Get(id); ok {
			targets = append(targets, conn)
		}
	}
	return b.publish(targets, env, exclude)
}

func (b *Broadcaster) ToSession(sid domain.SessionID, env protocol.Envelope, exclude core.ConnectionID) core.PublishResult {
	return b.publish(b.Registry.InSession(sid), env, exclude)
}

func (b *Broadcaster) ToRoom(rid domain.RoomID, env protocol.Envelope, exclude core.ConnectionID) core.PublishResult {
	return b.publish(b.Registry.InRoom(rid), env, exclude)
}

func (b *Broadcaster) ToAll(env protocol.Envelope, exclude core.ConnectionID) core.PublishResult {
	return b.publish(b.Registry.All(), env, exclude)
}

// publish encodes once and sends to each target in isolation.
func (b *Broadcaster) publish(targets []Connection, env protocol.Envelope, exclude core.ConnectionID) core.PublishResult {
	res := core.PublishResult{}
	data, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("type", string(env.Type)).Msg("encode envelope")
		return res
	}

	for _, conn := range targets {
		if conn.ID == exclude || conn.Signal == nil {
			continue
		}
		if err := conn.Signal.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, conn.ID)
			b.Metrics.ObserveDrop()
			log.Warn().Err(err).Str("module", "app.broadcast").Str("cid", string(conn.ID)).
				Str("type", string(env.Type)).Msg("send failed")
			b.onFailure(conn, err)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.broadcast").Str("type", string(env.Type)).Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (b *Broadcaster) onFailure(conn Connection, err error) {
	if b.Policy == nil {
		return
	}
	switch b.Policy.OnSendFailure(conn, err) {
	case KickMember:
		log.Info().Str("module", "app.broadcast").Str("cid", string(conn.ID)).Msg("kicking slow connection")
		conn.Signal.Close()
	case NoAction:
	}
}
