// Package raster bakes clip polygons into RGBA pixel buffers.
package raster

import (
	"image"
	"math"
	"slices"

	"github.com/inamate/stamps/internal/document"
)

// Rasterizer punches polygon holes into images. The intercept buffer is
// reused between rows and calls, so a Rasterizer must not be shared between
// goroutines.
type Rasterizer struct {
	intercepts []int32
}

// Clip zeroes every pixel of img covered by poly under the even-odd rule.
//
// Each row starts with a sentinel intercept at math.MinInt32, so the span
// left of the first crossing is zeroed as well; callers wrap the shape they
// want removed in an outer boundary to turn that into a hole. Rows with an
// odd number of intercepts are closed with a sentinel at math.MaxInt32.
// Spans are clamped to [0, width-1] and are half-open, so the last column is
// never touched. An empty polygon leaves img unchanged.
func (r *Rasterizer) Clip(img *image.RGBA, poly document.Polygon) {
	if len(poly) == 0 {
		return
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	last := int32(width - 1)

	for y := 0; y < height; y++ {
		fy := float64(y)
		r.intercepts = append(r.intercepts[:0], math.MinInt32)
		for i, p0 := range poly {
			p1 := poly[(i+len(poly)-1)%len(poly)]
			if p0.Y == p1.Y {
				continue
			}
			if p0.Y > p1.Y {
				p0, p1 = p1, p0
			}
			if fy >= p0.Y && fy < p1.Y {
				x := (fy-p0.Y)*(p1.X-p0.X)/(p1.Y-p0.Y) + p0.X
				r.intercepts = append(r.intercepts, truncate(x))
			}
		}
		slices.Sort(r.intercepts)
		if len(r.intercepts)%2 == 1 {
			r.intercepts = append(r.intercepts, math.MaxInt32)
		}

		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for i := 0; i+1 < len(r.intercepts); i += 2 {
			start := max(min(r.intercepts[i], last), 0)
			end := max(min(r.intercepts[i+1], last), 0)
			if start < end {
				clear(row[start*4 : end*4])
			}
		}
	}
}

// truncate converts toward zero, saturating at the int32 range.
func truncate(x float64) int32 {
	switch {
	case math.IsNaN(x):
		return 0
	case x <= math.MinInt32:
		return math.MinInt32
	case x >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(x)
}
