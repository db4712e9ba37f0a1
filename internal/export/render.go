package export

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/inamate/stamps/internal/document"
)

// TextureFunc resolves a stamp href to its (possibly clipped) texture.
type TextureFunc func(document.Href) (*image.RGBA, bool)

// Render paints svg onto a transparent canvas of the document's size.
// Stamps are tinted with their fill and drawn in document order; stamps
// without a texture are skipped.
func Render(svg *document.SVG, textures TextureFunc) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(svg.Width), int(svg.Height)))
	for _, s := range svg.Stamps {
		src, ok := textures(s.Href)
		if !ok {
			continue
		}
		m := s.Transform.Matrix()
		aff := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
		draw.ApproxBiLinear.Transform(dst, aff, tint(src, s.Fill), src.Bounds(), draw.Over, nil)
	}
	return dst
}

// tint multiplies every channel by c.
func tint(src *image.RGBA, c document.Color) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := out.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			s := src.Pix[si+4*x : si+4*x+4 : si+4*x+4]
			d := out.Pix[di+4*x : di+4*x+4 : di+4*x+4]
			d[0] = uint8(uint16(s[0]) * uint16(c.R) / 0xff)
			d[1] = uint8(uint16(s[1]) * uint16(c.G) / 0xff)
			d[2] = uint8(uint16(s[2]) * uint16(c.B) / 0xff)
			d[3] = s[3]
		}
	}
	return out
}
