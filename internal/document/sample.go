package document

import "github.com/inamate/stamps/internal/geom"

// NewSampleDocument returns a small arrangement used by demos: a row of
// tinted rects and one pipe clipped along its right half.
func NewSampleDocument() *SVG {
	d := NewEmptyDocument(1024, 768)

	colors := []Color{
		{R: 0xee, G: 0x40, B: 0x35},
		{R: 0xff, G: 0xa7, B: 0x00},
		{R: 0x00, G: 0x87, B: 0x44},
		{R: 0x03, G: 0x92, B: 0xcf},
	}
	for i, c := range colors {
		t := geom.NewTransform(50, 50)
		t.TX = 100 + float64(i)*60
		t.TY = 100
		t.Rotate = float64(i) * 15
		d.Add(t, "rect", "", c)
	}

	pipe := geom.NewTransform(40, 120)
	pipe.TX = 400
	pipe.TY = 80
	pipe.Rotate = 90
	clip := d.RegisterClip(Polygon{
		{X: -80, Y: -240},
		{X: 80, Y: -240},
		{X: 80, Y: 240},
		{X: -80, Y: 240},
		{X: -80, Y: -240},
		{X: 20, Y: 0},
		{X: 40, Y: 0},
		{X: 40, Y: 120},
		{X: 20, Y: 120},
		{X: 20, Y: 0},
		{X: -80, Y: -240},
	})
	d.Add(pipe, "pipe", clip, Color{R: 0x40, G: 0x40, B: 0x40})

	return d
}
