package protocol

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"

	"github.com/dkeye/Desk/internal/domain"
)

// Envelope is an outbound frame.
type Envelope struct {
	Type      MessageType          `json:"type"`
	Payload   any                  `json:"payload,omitempty"`
	UserID    domain.ParticipantID `json:"userId,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

// RawEnvelope is an inbound frame whose payload has not been decoded yet.
type RawEnvelope struct {
	Type      MessageType          `json:"type"`
	Payload   json.RawMessage      `json:"payload,omitempty"`
	UserID    domain.ParticipantID `json:"userId,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

// codec matches encoding/json: strings are validated and invalid UTF-8 is
// replaced with U+FFFD on the way out.
var codec = sonic.ConfigStd

func NewEnvelope(t MessageType, payload any, from domain.ParticipantID) Envelope {
	return Envelope{
		Type:      t,
		Payload:   payload,
		UserID:    from,
		Timestamp: time.Now().UnixMilli(),
	}
}

func NewError(code, message string) Envelope {
	return NewEnvelope(TypeError, ErrorPayload{Code: code, Message: message}, "")
}

func Encode(env Envelope) ([]byte, error) {
	return codec.Marshal(env)
}

// DecodeEnvelope parses the outer frame only.
func DecodeEnvelope(data []byte) (RawEnvelope, error) {
	var env RawEnvelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return RawEnvelope{}, err
	}
	return env, nil
}

// DecodePayload unmarshals the payload of env into v.
func DecodePayload(env RawEnvelope, v any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	return codec.Unmarshal(env.Payload, v)
}
