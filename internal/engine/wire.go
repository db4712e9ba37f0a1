package engine

import (
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown action")

// InputMessage is the JSON form of Input used by remote front ends, with
// actions spelled by name.
type InputMessage struct {
	Held        []string `json:"held,omitempty"`
	Pressed     []string `json:"pressed,omitempty"`
	Shift       bool     `json:"shift,omitempty"`
	Repeat      bool     `json:"repeat,omitempty"`
	Accelerated bool     `json:"accelerated,omitempty"`
	Pointer     *Pointer `json:"pointer,omitempty"`
	Click       bool     `json:"click,omitempty"`
	Released    bool     `json:"released,omitempty"`
	Resize      *Size    `json:"resize,omitempty"`
	Close       bool     `json:"close,omitempty"`
}

// Input converts the message. Pressed actions count as held for this
// step.
func (m InputMessage) Input() (Input, error) {
	held, ok := ParseActions(m.Held)
	if !ok {
		return Input{}, fmt.Errorf("%w in held %q", ErrUnknownAction, m.Held)
	}
	pressed, ok := ParseActions(m.Pressed)
	if !ok {
		return Input{}, fmt.Errorf("%w in pressed %q", ErrUnknownAction, m.Pressed)
	}
	return Input{
		Held:        held | pressed,
		Pressed:     pressed,
		Shift:       m.Shift,
		Repeat:      m.Repeat,
		Accelerated: m.Accelerated,
		Pointer:     m.Pointer,
		Click:       m.Click,
		Released:    m.Released,
		Resize:      m.Resize,
		Close:       m.Close,
	}, nil
}

// Effects reported back to remote front ends.
type EffectsMessage struct {
	Saved bool `json:"saved"`
	Quit  bool `json:"quit"`
}

func (fx Effects) Message() EffectsMessage {
	return EffectsMessage{Saved: fx.Save, Quit: fx.Quit}
}
