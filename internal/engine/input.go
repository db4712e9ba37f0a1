package engine

import (
	"strings"

	"github.com/inamate/stamps/internal/document"
)

// Action is a set of editor actions. Front ends map their own keys, buttons
// or messages onto actions; the engine never sees key codes.
type Action uint64

const (
	ActionLeft Action = 1 << iota
	ActionRight
	ActionUp
	ActionDown

	ActionPanUp
	ActionPanLeft
	ActionPanDown
	ActionPanRight

	ActionColor1
	ActionColor2
	ActionColor3
	ActionColor4
	ActionColor5
	ActionColor6
	ActionColor7
	ActionColor8
	ActionColor9
	ActionColor0
	ActionColorBlack

	ActionRed
	ActionGreen
	ActionBlue

	ActionMaskUp
	ActionMaskLeft
	ActionMaskDown
	ActionMaskRight
	ActionMaskRotateLeft
	ActionMaskRotateRight

	ActionLock
	ActionUndo
	ActionRotateUp
	ActionRotateDown
	ActionPlaceHeld
	ActionPlace
	ActionQuit
)

var actionNames = map[string]Action{
	"left":            ActionLeft,
	"right":           ActionRight,
	"up":              ActionUp,
	"down":            ActionDown,
	"pan-up":          ActionPanUp,
	"pan-left":        ActionPanLeft,
	"pan-down":        ActionPanDown,
	"pan-right":       ActionPanRight,
	"color-1":         ActionColor1,
	"color-2":         ActionColor2,
	"color-3":         ActionColor3,
	"color-4":         ActionColor4,
	"color-5":         ActionColor5,
	"color-6":         ActionColor6,
	"color-7":         ActionColor7,
	"color-8":         ActionColor8,
	"color-9":         ActionColor9,
	"color-0":         ActionColor0,
	"color-black":     ActionColorBlack,
	"red":             ActionRed,
	"green":           ActionGreen,
	"blue":            ActionBlue,
	"mask-up":         ActionMaskUp,
	"mask-left":       ActionMaskLeft,
	"mask-down":       ActionMaskDown,
	"mask-right":      ActionMaskRight,
	"mask-rotate-ccw": ActionMaskRotateLeft,
	"mask-rotate-cw":  ActionMaskRotateRight,
	"lock":            ActionLock,
	"undo":            ActionUndo,
	"rotate-up":       ActionRotateUp,
	"rotate-down":     ActionRotateDown,
	"place-held":      ActionPlaceHeld,
	"place":           ActionPlace,
	"quit":            ActionQuit,
}

// ParseActions converts a list of action names into a set. Unknown names
// are reported with ok=false and ignored.
func ParseActions(names []string) (Action, bool) {
	var set Action
	ok := true
	for _, n := range names {
		a, found := actionNames[strings.ToLower(strings.TrimSpace(n))]
		if !found {
			ok = false
			continue
		}
		set |= a
	}
	return set, ok
}

func (a Action) Has(b Action) bool {
	return a&b != 0
}

// Pointer is a position in window pixels.
type Pointer struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Input is one step of user input.
//
// Held is every action currently held down. Pressed is the action that was
// just pressed and started this step; it is empty on repeat steps, which
// are driven by the held set alone.
type Input struct {
	Held        Action
	Pressed     Action
	Shift       bool
	Repeat      bool
	Accelerated bool

	Pointer  *Pointer // pointer moved to this position
	Click    bool     // primary button pressed at Pointer
	Released bool     // some key was released
	Resize   *Size
	Close    bool // window closed
}

// Effects are requests the caller must carry out after an input step.
type Effects struct {
	Save bool
	Quit bool
}

type colorSlot struct {
	action  Action
	normal  document.Color
	shifted *document.Color
}

func rgb(v uint32) document.Color {
	return document.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

func rgbp(v uint32) *document.Color {
	c := rgb(v)
	return &c
}

var colorSlots = []colorSlot{
	{ActionColor1, rgb(0xee4035), rgbp(0x2b140e)},
	{ActionColor2, rgb(0xf37736), nil},
	{ActionColor3, rgb(0xffa700), rgbp(0xfdf5b0)},
	{ActionColor4, rgb(0x008744), rgbp(0x7bc043)},
	{ActionColor5, rgb(0x0392cf), rgbp(0xc0c2ce)},
	{ActionColor6, rgb(0x404040), rgbp(0x808080)},
	{ActionColor7, rgb(0x8874a3), nil},
	{ActionColor8, rgb(0x3d1e6d), nil},
	{ActionColor9, rgb(0x3d2352), nil},
	{ActionColor0, rgb(0x2e003e), nil},
	{ActionColorBlack, rgb(0x000000), nil},
}
