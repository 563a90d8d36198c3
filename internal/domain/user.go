// Package domain contains entities without transport logic, just state and meta-data
package domain

import (
	"errors"
	"time"
)

const (
	MaxParticipantIDLen = 128
	MaxUsernameLen      = 36
)

var (
	ErrUsernameTooLong      = errors.New("username too long")
	ErrUsernameEmpty        = errors.New("username empty")
	ErrParticipantIDInvalid = errors.New("participant id invalid")
)

// ParticipantID is the authenticated identity handed over by the auth layer.
// It is opaque to this module.
type ParticipantID string

type Participant struct {
	ID       ParticipantID `json:"id"`
	Username string        `json:"username"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id ParticipantID, username string) (*Participant, error) {
	if id == "" || len(id) > MaxParticipantIDLen {
		return nil, ErrParticipantIDInvalid
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &Participant{ID: id, Username: username}, nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// UnixMillis is a wall-clock instant as it travels on the wire.
type UnixMillis int64

func Millis(t time.Time) UnixMillis { return UnixMillis(t.UnixMilli()) }

func (m UnixMillis) Time() time.Time { return time.UnixMilli(int64(m)) }
