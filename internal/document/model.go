package document

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/stamps/internal/geom"
)

// Polygon is an implicitly closed point list in some local frame.
type Polygon []r2.Vec

type ClipPath struct {
	ID      string  `json:"id"`
	Polygon Polygon `json:"polygon"`
}

// Href identifies a source image plus an optional clip reference. It is the
// texture cache key, so it must stay comparable.
type Href struct {
	URL  string `json:"url"`
	Clip string `json:"clip"`
}

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Stamp is one placement committed into the document.
type Stamp struct {
	Transform geom.Transform `json:"transform"`
	Href      Href           `json:"href"`
	Fill      Color          `json:"fill"`
	Width     uint32         `json:"width"`
	Height    uint32         `json:"height"`
}

type Defs struct {
	ClipPaths []ClipPath `json:"clipPaths"`
}

// SVG is the document: canvas size, stamps in paint order and clip
// definitions.
type SVG struct {
	Width  uint32  `json:"width"`
	Height uint32  `json:"height"`
	Stamps []Stamp `json:"stamps"`
	Defs   Defs    `json:"defs"`
}

// NewEmptyDocument creates a blank document of the given canvas size.
func NewEmptyDocument(width, height uint32) *SVG {
	return &SVG{
		Width:  width,
		Height: height,
	}
}

// Resize grows the canvas to at least width x height. It never shrinks.
func (d *SVG) Resize(width, height uint32) {
	d.Width = max(d.Width, width)
	d.Height = max(d.Height, height)
}

// Add appends a stamp whose size is derived from the transform's pivot.
func (d *SVG) Add(t geom.Transform, url, clip string, fill Color) {
	d.Stamps = append(d.Stamps, Stamp{
		Transform: t,
		Href:      Href{URL: url, Clip: clip},
		Fill:      fill,
		Width:     uint32(2 * t.MidX),
		Height:    uint32(2 * t.MidY),
	})
}

// Clone returns a deep copy of the document.
func (d *SVG) Clone() *SVG {
	out := &SVG{Width: d.Width, Height: d.Height}
	if d.Stamps != nil {
		out.Stamps = append([]Stamp(nil), d.Stamps...)
	}
	if d.Defs.ClipPaths != nil {
		out.Defs.ClipPaths = make([]ClipPath, len(d.Defs.ClipPaths))
		for i, c := range d.Defs.ClipPaths {
			out.Defs.ClipPaths[i] = ClipPath{ID: c.ID}
			if c.Polygon != nil {
				out.Defs.ClipPaths[i].Polygon = append(Polygon(nil), c.Polygon...)
			}
		}
	}
	return out
}

// Equal reports whether two documents hold the same canvas, stamps and clip
// definitions in the same order. Nil and empty lists compare equal.
func (d *SVG) Equal(o *SVG) bool {
	return d.Width == o.Width && d.Height == o.Height &&
		slices.Equal(d.Stamps, o.Stamps) &&
		slices.EqualFunc(d.Defs.ClipPaths, o.Defs.ClipPaths, func(a, b ClipPath) bool {
			return a.ID == b.ID && slices.Equal(a.Polygon, b.Polygon)
		})
}
