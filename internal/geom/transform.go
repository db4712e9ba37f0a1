// Package geom holds the placement algebra shared by the document model and
// the engine: pivot transforms, affine matrices and axis-aligned boxes.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform places an entity of size (2*MidX, 2*MidY) in its parent frame.
// A local point is rotated by Rotate degrees about the pivot (MidX, MidY)
// and then translated by (TX, TY). Local coordinates have their origin at
// the entity's top-left corner, so they coincide with pixel coordinates of
// the entity's image.
//
// Rotate is stored unbounded; it is only normalized when snapped.
type Transform struct {
	TX     float64 `json:"tx"`
	TY     float64 `json:"ty"`
	MidX   float64 `json:"midx"`
	MidY   float64 `json:"midy"`
	Rotate float64 `json:"rotate"`
}

// NewTransform returns the transform of an unplaced entity of the given size:
// pivot at its center, no rotation, no translation.
func NewTransform(width, height uint32) Transform {
	return Transform{
		MidX: float64(width) / 2,
		MidY: float64(height) / 2,
	}
}

// Pivot returns the rotation center in local coordinates.
func (t Transform) Pivot() r2.Vec {
	return r2.Vec{X: t.MidX, Y: t.MidY}
}

// Translation returns (TX, TY).
func (t Transform) Translation() r2.Vec {
	return r2.Vec{X: t.TX, Y: t.TY}
}

// Matrix returns the affine matrix equivalent of the transform.
func (t Transform) Matrix() Matrix2D {
	return FromPivot(t.TX, t.TY, t.Rotate, t.MidX, t.MidY)
}

// Forward maps p from the transform's local frame to the parent frame.
func (t Transform) Forward(p r2.Vec) r2.Vec {
	return r2.Add(r2.Rotate(p, radians(t.Rotate), t.Pivot()), t.Translation())
}

// Inverse maps p from the parent frame back to the local frame.
// Inverse(Forward(p)) == p up to floating point rounding.
func (t Transform) Inverse(p r2.Vec) r2.Vec {
	return r2.Rotate(r2.Sub(p, t.Translation()), -radians(t.Rotate), t.Pivot())
}

// BBox returns the axis-aligned box enclosing the rotated footprint
// [0, 2*MidX] x [0, 2*MidY]. It is meant for coarse overlap tests.
func (t Transform) BBox() Rect {
	return t.Matrix().TransformRect(Rect{Width: 2 * t.MidX, Height: 2 * t.MidY})
}

// Compose returns the transform that applies child first and then parent.
// The result keeps the child's pivot, so the composed transform can be drawn
// with the child's image. Compose is associative.
func Compose(parent, child Transform) Transform {
	m := parent.Matrix().Multiply(child.Matrix())
	pivot := child.Pivot()
	moved := m.TransformPoint(pivot)
	return Transform{
		TX:     moved.X - pivot.X,
		TY:     moved.Y - pivot.Y,
		MidX:   child.MidX,
		MidY:   child.MidY,
		Rotate: parent.Rotate + child.Rotate,
	}
}

// BoxIntersect reports whether the bounding boxes of t0 and t1 overlap.
func BoxIntersect(t0, t1 Transform) bool {
	return t0.BBox().Intersects(t1.BBox())
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
