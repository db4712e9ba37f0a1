package collab

import (
	"encoding/json"

	"github.com/inamate/stamps/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editing
	TypeInput     = "input"
	TypeInputAck  = "input.ack"
	TypeInputNack = "input.nack"
	TypeFrame     = "frame"
)

// WelcomePayload is sent once after a client connects.
type WelcomePayload struct {
	ClientID  string       `json:"clientId"`
	SessionID string       `json:"sessionId,omitempty"`
	Frame     engine.Frame `json:"frame"`
}

// InputPayload wraps one engine input. Seq is chosen by the client and
// echoed in the ack or nack.
type InputPayload struct {
	Seq   int64               `json:"seq"`
	Input engine.InputMessage `json:"input"`
}

type InputAckPayload struct {
	Seq       int64                 `json:"seq"`
	ServerSeq int64                 `json:"serverSeq"`
	Effects   engine.EffectsMessage `json:"effects"`
}

type InputNackPayload struct {
	Seq    int64  `json:"seq"`
	Reason string `json:"reason"`
}

// PresencePayload is what other viewers see of a client: where its pointer
// is over the shared canvas.
type PresencePayload struct {
	Pointer *engine.Pointer `json:"pointer,omitempty"`
	Label   string          `json:"label,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
	Label    string `json:"label,omitempty"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
