package engine

import (
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
)

const (
	moveStep   = 1
	rotateStep = 1.0
	lockGrid   = 4
)

// Cursor is the pointer position and the transform the active stamp will be
// placed with.
type Cursor struct {
	X         int
	Y         int
	Transform geom.Transform
}

// Session is the interactive editor state around an arrangement: pointer,
// camera, the two mask transforms, the active palette stamp and the current
// color. Apply is its only state transition.
type Session struct {
	arr *Arrangement
	inv *Inventory

	cursor    Cursor
	camera    geom.Transform
	masks     [2]geom.Transform
	active    string // palette name, empty when nothing is picked
	stampUsed bool
	color     document.Color
	locked    bool
	width     uint32
	height    uint32

	lastPlace *Cursor
}

// NewSession creates a session for a width x height viewport. The canvas is
// grown to at least the viewport and the masks start tucked against the
// top-left corner.
func NewSession(arr *Arrangement, inv *Inventory, maskWidth, maskHeight, width, height uint32) *Session {
	arr.Get().Resize(width, height)

	s := &Session{
		arr:    arr,
		inv:    inv,
		width:  width,
		height: height,
	}
	s.masks[0] = geom.NewTransform(maskWidth, maskHeight)
	s.masks[1] = geom.NewTransform(maskWidth, maskHeight)
	s.masks[0].TX = 10 - 2*s.masks[0].MidX
	s.masks[1].TX = 0
	s.masks[1].TY = 10 - 2*s.masks[0].MidY

	inv.Layout(height)
	return s
}

func (s *Session) Cursor() Cursor            { return s.cursor }
func (s *Session) Camera() geom.Transform    { return s.camera }
func (s *Session) Masks() [2]geom.Transform  { return s.masks }
func (s *Session) Color() document.Color     { return s.color }
func (s *Session) Locked() bool              { return s.locked }
func (s *Session) Arrangement() *Arrangement { return s.arr }

// Active returns the picked palette stamp.
func (s *Session) Active() (string, bool) {
	return s.active, s.active != ""
}

// Apply runs one input step.
func (s *Session) Apply(in Input) Effects {
	var fx Effects

	if in.Resize != nil {
		s.width, s.height = in.Resize.Width, in.Resize.Height
		s.inv.Layout(s.height)
	}
	if in.Released {
		s.lastPlace = nil
	}
	if in.Pointer != nil {
		s.cursor.X, s.cursor.Y = in.Pointer.X, in.Pointer.Y
		if in.Click {
			s.click(&fx)
		} else {
			s.clearActiveIfUsed()
		}
	}
	if in.Held|in.Pressed != 0 {
		s.applyActions(in, &fx)
	}
	if in.Close {
		fx.Save, fx.Quit = true, true
	}
	return fx
}

func (s *Session) applyActions(in Input, fx *Effects) {
	held := in.Held | in.Pressed
	shift := in.Shift
	step := moveStep
	if in.Accelerated {
		step *= 4
	}
	maskIndex := 0
	if shift {
		maskIndex = 1
	}

	if held.Has(ActionLeft) {
		s.cursor.X -= step
		s.clearActiveIfUsed()
	}
	if held.Has(ActionRight) {
		s.cursor.X += step
		s.clearActiveIfUsed()
	}
	if held.Has(ActionUp) {
		s.cursor.Y -= step
		s.clearActiveIfUsed()
	}
	if held.Has(ActionDown) {
		s.cursor.Y += step
		s.clearActiveIfUsed()
	}

	if held.Has(ActionPanUp) {
		s.camera.TY += float64(step)
		// Keep the camera from scrolling above the canvas: grow the canvas
		// and push everything down instead. Masks stay where they are on
		// screen.
		if s.camera.TY > 1 {
			whole := uint32(s.camera.TY)
			s.arr.Shift(whole)
			s.camera.TY -= float64(whole)
		}
	}
	if held.Has(ActionPanLeft) {
		s.camera.TX -= float64(step)
	}
	if held.Has(ActionPanDown) {
		s.camera.TY -= float64(step)
	}
	if held.Has(ActionPanRight) {
		s.camera.TX += float64(step)
	}

	for _, slot := range colorSlots {
		if !held.Has(slot.action) {
			continue
		}
		if shift && slot.shifted != nil {
			s.color = *slot.shifted
		} else {
			s.color = slot.normal
		}
	}
	if held.Has(ActionRed) {
		s.color.R = nudge(s.color.R, shift)
	}
	if held.Has(ActionGreen) {
		s.color.G = nudge(s.color.G, shift)
	}
	if held.Has(ActionBlue) {
		s.color.B = nudge(s.color.B, shift)
	}

	if held.Has(ActionQuit) {
		fx.Save, fx.Quit = true, true
		return
	}

	mask := &s.masks[maskIndex]
	if held.Has(ActionMaskUp) {
		mask.TY -= float64(step)
		s.constrainMask(mask)
	}
	if held.Has(ActionMaskLeft) {
		mask.TX -= float64(step)
		s.constrainMask(mask)
	}
	if held.Has(ActionLock) {
		s.locked = !shift
	}
	if held.Has(ActionMaskDown) {
		mask.TY += float64(step)
		s.constrainMask(mask)
	}
	if held.Has(ActionMaskRight) {
		mask.TX += float64(step)
		s.constrainMask(mask)
	}
	if held.Has(ActionMaskRotateLeft) {
		mask.Rotate -= rotateStep
		s.constrainMask(mask)
	}
	if held.Has(ActionMaskRotateRight) {
		mask.Rotate += rotateStep
		s.constrainMask(mask)
	}

	if held.Has(ActionUndo) && !in.Repeat {
		if shift {
			s.arr.RestoreLast()
		} else {
			s.arr.RemoveLast()
		}
	}

	if held.Has(ActionRotateUp) {
		if s.locked || shift {
			if !in.Repeat {
				s.cursor.Transform.Rotate = RoundUpToGolden(s.cursor.Transform.Rotate, s.locked && shift)
			}
		} else {
			s.cursor.Transform.Rotate += rotateStep
		}
	}
	if held.Has(ActionRotateDown) {
		if s.locked || shift {
			if !in.Repeat {
				s.cursor.Transform.Rotate = RoundDownToGolden(s.cursor.Transform.Rotate, s.locked && shift)
			}
		} else {
			s.cursor.Transform.Rotate -= rotateStep
		}
	}

	// A held place key keeps stamping only while the cursor changes.
	if held.Has(ActionPlaceHeld) {
		if s.lastPlace == nil || *s.lastPlace != s.cursor || !in.Repeat {
			s.click(fx)
		}
		last := s.cursor
		s.lastPlace = &last
	} else {
		s.lastPlace = nil
	}

	if in.Pressed.Has(ActionPlace) && !in.Repeat {
		s.click(fx)
	}
}

func nudge(v uint8, down bool) uint8 {
	if down {
		if v > 0 {
			return v - 1
		}
		return v
	}
	if v < 0xff {
		return v + 1
	}
	return v
}

// constrainMask keeps part of the mask inside the viewport.
func (s *Session) constrainMask(t *geom.Transform) {
	if t.TX > float64(s.width) {
		t.TX = float64(s.width)
	}
	if t.TY > float64(s.height) {
		t.TY = float64(s.height)
	}
	if t.TX+2*t.MidX < 0 {
		t.TX = -2 * t.MidX
	}
	if t.TY+2*t.MidY < 0 {
		t.TY = -2 * t.MidY
	}
}

func (s *Session) lock(v int) int {
	if s.locked {
		return (v / lockGrid) * lockGrid
	}
	return v
}

// click picks from the palette or places the active stamp, and asks for a
// save once the document has stamps.
func (s *Session) click(fx *Effects) {
	s.pickOrPlace()
	if len(s.arr.Get().Stamps) != 0 {
		fx.Save = true
	}
}

func (s *Session) pickOrPlace() {
	if item, ok := s.inv.HitTest(s.cursor.X, s.cursor.Y); ok {
		s.active = item.Name
		s.stampUsed = false
		s.cursor.Transform = geom.NewTransform(uint32(item.Bounds.Width), uint32(item.Bounds.Height))
		s.cursor.Transform.Rotate += item.RotDelta
		return
	}
	if s.active == "" {
		return
	}
	s.place(s.placement())
	s.stampUsed = true
}

// placement is where the active stamp lands in document space: centered on
// the (grid locked) pointer and undone by the camera.
func (s *Session) placement() geom.Transform {
	t := s.cursor.Transform
	t.Rotate -= s.camera.Rotate
	t.TX = float64(s.lock(s.cursor.X)) - s.cursor.Transform.MidX - s.camera.TX
	t.TY = float64(s.lock(s.cursor.Y)) - s.cursor.Transform.MidY - s.camera.TY
	return t
}

// place commits the active stamp at t. When its box touches either mask,
// both masks are cut out of it through a newly registered clip.
func (s *Session) place(t geom.Transform) {
	clip := ""
	for _, m := range s.masks {
		if geom.BoxIntersect(m, t) {
			clip = s.arr.Mut().RegisterClip(MaskClip(t, s.masks[:]))
			break
		}
	}
	s.arr.PushStamp(t, s.active, clip, s.color)
}

// MaskClip builds the clip polygon, in t's local frame, that punches each
// mask's rectangle out of a stamp placed at t. The outer frame is four times
// the stamp's half extents so the rasterizer's leading sentinel span falls
// outside the image. Every mask is cut, including ones whose box misses the
// stamp's box; their holes land outside the image and leave no pixels
// changed.
func MaskClip(t geom.Transform, masks []geom.Transform) document.Polygon {
	outer := document.Polygon{
		{X: -4 * t.MidX, Y: -4 * t.MidY},
		{X: 4 * t.MidX, Y: -4 * t.MidY},
		{X: 4 * t.MidX, Y: 4 * t.MidY},
		{X: -4 * t.MidX, Y: 4 * t.MidY},
		{X: -4 * t.MidX, Y: -4 * t.MidY},
	}
	ret := outer[0]

	poly := append(document.Polygon(nil), outer...)
	for _, m := range masks {
		w, h := 2*m.MidX, 2*m.MidY
		corners := document.Polygon{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}, {X: 0, Y: 0}}
		for _, c := range corners {
			poly = append(poly, t.Inverse(m.Forward(c)))
		}
		poly = append(poly, ret)
	}
	return poly
}

// clearActiveIfUsed drops the active stamp once it has been placed and the
// pointer wanders back over the palette.
func (s *Session) clearActiveIfUsed() {
	if !s.stampUsed {
		return
	}
	if _, ok := s.inv.HitTest(s.cursor.X, s.cursor.Y); ok {
		s.active = ""
	}
}
