package engine

import (
	"encoding/json"
	"image"

	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
)

// Sprite is one textured rectangle for the renderer: draw Image at
// Transform's footprint, rotated about its pivot, tinted with Fill.
type Sprite struct {
	Key       document.Href  `json:"key"`
	Image     *image.RGBA    `json:"-"`
	Transform geom.Transform `json:"transform"`
	Matrix    []float64      `json:"matrix"` // [a, b, c, d, e, f] affine matrix
	Fill      string         `json:"fill"`
	Width     uint32         `json:"width"`
	Height    uint32         `json:"height"`
}

// Frame is everything a renderer needs for one picture, in paint order:
// stamps, palette, then cursor and masks on top.
type Frame struct {
	Width   uint32   `json:"width"`
	Height  uint32   `json:"height"`
	Stamps  []Sprite `json:"stamps"`
	Palette []Sprite `json:"palette"`
	Cursor  Sprite   `json:"cursor"`
	Masks   []Sprite `json:"masks"`
}

// Keys used for the two overlay glyphs; they never collide with stamp
// names, which are relative paths without extension.
var (
	CursorKey = document.Href{URL: "cursor.bmp"}
	MaskKey   = document.Href{URL: "mask.bmp"}
)

var paletteTint = document.Color{}

func sprite(key document.Href, img *image.RGBA, t geom.Transform, fill document.Color, w, h uint32) Sprite {
	return Sprite{
		Key:       key,
		Image:     img,
		Transform: t,
		Matrix:    t.Matrix().ToSlice(),
		Fill:      fill.Hex(),
		Width:     w,
		Height:    h,
	}
}

// Frame builds the render triples for the current state. Stamps whose href
// has no texture are skipped.
func (s *Session) Frame(cursorGlyph, maskGlyph *image.RGBA) Frame {
	f := Frame{Width: s.width, Height: s.height}

	for _, g := range s.arr.Get().Stamps {
		img, ok := s.inv.Lookup(g.Href)
		if !ok {
			continue
		}
		t := geom.Compose(s.camera, g.Transform)
		f.Stamps = append(f.Stamps, sprite(g.Href, img, t, g.Fill, g.Width, g.Height))
	}

	for _, item := range s.inv.Palette() {
		key := document.Href{URL: item.Name}
		img, _ := s.inv.Lookup(key)
		t := geom.Transform{TX: item.Bounds.X, TY: item.Bounds.Y}
		f.Palette = append(f.Palette, sprite(key, img, t, paletteTint,
			uint32(item.Bounds.Width), uint32(item.Bounds.Height)))
	}

	if img, ok := s.activeImage(); ok {
		size := img.Bounds().Size()
		t := s.cursor.Transform
		t.TX = float64(s.lock(s.cursor.X) - size.X/2)
		t.TY = float64(s.lock(s.cursor.Y) - size.Y/2)
		f.Cursor = sprite(document.Href{URL: s.active}, img, t, s.color, uint32(size.X), uint32(size.Y))
	} else if cursorGlyph != nil {
		size := cursorGlyph.Bounds().Size()
		t := geom.Transform{TX: float64(s.cursor.X), TY: float64(s.cursor.Y)}
		f.Cursor = sprite(CursorKey, cursorGlyph, t, s.color, uint32(size.X), uint32(size.Y))
	}

	for _, m := range s.masks {
		t := geom.Compose(s.camera, m)
		f.Masks = append(f.Masks, sprite(MaskKey, maskGlyph, t, document.Color{R: 0xff, G: 0xff, B: 0xff},
			uint32(2*t.MidX), uint32(2*t.MidY)))
	}
	return f
}

func (s *Session) activeImage() (*image.RGBA, bool) {
	if s.active == "" {
		return nil, false
	}
	return s.inv.Lookup(document.Href{URL: s.active})
}

// FrameToJSON serializes a frame for remote renderers, which fetch textures
// by key.
func FrameToJSON(f Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
