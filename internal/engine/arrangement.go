package engine

import (
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
)

// Arrangement owns the document, its undo stack and the dirty flag that
// tells the inventory to rescan.
type Arrangement struct {
	svg   *document.SVG
	undo  []document.Stamp
	dirty bool
}

// NewArrangement wraps svg. It starts dirty so the first scan builds every
// texture the document needs.
func NewArrangement(svg *document.SVG) *Arrangement {
	return &Arrangement{svg: svg, dirty: true}
}

// Get returns the document for reading.
func (a *Arrangement) Get() *document.SVG {
	return a.svg
}

// Mut returns the document for writing and marks the arrangement dirty.
func (a *Arrangement) Mut() *document.SVG {
	a.dirty = true
	return a.svg
}

func (a *Arrangement) Dirty() bool {
	return a.dirty
}

// Undo returns the removed stamps, most recently removed last.
func (a *Arrangement) Undo() []document.Stamp {
	return a.undo
}

// PushStamp appends a stamp sized from t's pivot.
func (a *Arrangement) PushStamp(t geom.Transform, url, clip string, fill document.Color) {
	a.Mut().Add(t, url, clip, fill)
}

// RemoveLast moves the topmost stamp to the undo stack.
func (a *Arrangement) RemoveLast() (document.Stamp, bool) {
	n := len(a.svg.Stamps)
	if n == 0 {
		return document.Stamp{}, false
	}
	s := a.svg.Stamps[n-1]
	a.Mut().Stamps = a.svg.Stamps[:n-1]
	a.undo = append(a.undo, s)
	return s, true
}

// RestoreLast moves the most recently removed stamp back on top of the
// document. It is always appended, whatever its original position was.
func (a *Arrangement) RestoreLast() (document.Stamp, bool) {
	n := len(a.undo)
	if n == 0 {
		return document.Stamp{}, false
	}
	s := a.undo[n-1]
	a.undo = a.undo[:n-1]
	a.Mut().Stamps = append(a.svg.Stamps, s)
	return s, true
}

// Shift moves every stamp, including removed ones, down by dy pixels and
// grows the canvas to match. Textures do not depend on placement, so the
// arrangement stays clean.
func (a *Arrangement) Shift(dy uint32) {
	for i := range a.undo {
		a.undo[i].Transform.TY += float64(dy)
	}
	for i := range a.svg.Stamps {
		a.svg.Stamps[i].Transform.TY += float64(dy)
	}
	a.svg.Height += dy
}

// markClean is called by a completed inventory scan.
func (a *Arrangement) markClean() {
	a.dirty = false
}
