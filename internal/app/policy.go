package app

import (
	"errors"

	"github.com/dkeye/Desk/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a connection whose send failed during fan-out.
// Delivery to the other targets continues whatever it returns.
type Policy interface {
	OnSendFailure(conn Connection, err error) BackpressureAction
}

// SimplePolicy kicks connections whose send buffer is full; a slow reader would
// otherwise silently miss state changes. Already closed transports are left alone.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(_ Connection, err error) BackpressureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return KickMember
	}
	return NoAction
}
