package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestForwardInverse(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		p    r2.Vec
		want r2.Vec
	}{
		{"identity", Transform{}, r2.Vec{X: 3, Y: 4}, r2.Vec{X: 3, Y: 4}},
		{"translate", Transform{TX: 10, TY: -2}, r2.Vec{X: 1, Y: 1}, r2.Vec{X: 11, Y: -1}},
		{"pivot is fixed", Transform{MidX: 5, MidY: 5, Rotate: 90}, r2.Vec{X: 5, Y: 5}, r2.Vec{X: 5, Y: 5}},
		{"quarter turn", Transform{MidX: 5, MidY: 5, Rotate: 90}, r2.Vec{X: 10, Y: 5}, r2.Vec{X: 5, Y: 10}},
		{"half turn plus shift", Transform{TX: 1, TY: 2, MidX: 2, MidY: 1, Rotate: 180}, r2.Vec{}, r2.Vec{X: 5, Y: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tr.Forward(tt.p)
			if !near(got, tt.want) {
				t.Fatalf("Forward(%v) = %v, want %v", tt.p, got, tt.want)
			}
			if back := tt.tr.Inverse(got); !near(back, tt.p) {
				t.Fatalf("Inverse(Forward(%v)) = %v", tt.p, back)
			}
			if m := tt.tr.Matrix().TransformPoint(tt.p); !near(m, tt.want) {
				t.Fatalf("Matrix().TransformPoint(%v) = %v, want %v", tt.p, m, tt.want)
			}
		})
	}
}

func TestInverseMatchesMatrixInvert(t *testing.T) {
	tr := Transform{TX: 17, TY: -3, MidX: 12, MidY: 7, Rotate: 33}
	p := r2.Vec{X: 40, Y: 9}
	if got, want := tr.Inverse(p), tr.Matrix().Invert().TransformPoint(p); !near(got, want) {
		t.Fatalf("Inverse = %v, Matrix().Invert() = %v", got, want)
	}
}

func TestCompose(t *testing.T) {
	parent := Transform{TX: 3, TY: 4, MidX: 10, MidY: 10, Rotate: 30}
	child := Transform{TX: -5, TY: 2, MidX: 4, MidY: 6, Rotate: 45}
	grand := Transform{TX: 1, TY: 1, MidX: 2, MidY: 3, Rotate: -15}

	c := Compose(parent, child)
	if c.MidX != child.MidX || c.MidY != child.MidY {
		t.Fatalf("Compose changed pivot: %+v", c)
	}
	if c.Rotate != 75 {
		t.Fatalf("Compose rotate = %v, want 75", c.Rotate)
	}

	for _, p := range []r2.Vec{{}, {X: 8, Y: 0}, {X: 8, Y: 12}, {X: 1.5, Y: -7}} {
		want := parent.Forward(child.Forward(p))
		if got := c.Forward(p); !near(got, want) {
			t.Fatalf("Compose.Forward(%v) = %v, want %v", p, got, want)
		}
	}

	left := Compose(Compose(parent, child), grand)
	right := Compose(parent, Compose(child, grand))
	for _, p := range []r2.Vec{{}, {X: 4, Y: 6}, {X: -3, Y: 9}} {
		if a, b := left.Forward(p), right.Forward(p); !near(a, b) {
			t.Fatalf("Compose is not associative at %v: %v vs %v", p, a, b)
		}
	}
}

func TestBBox(t *testing.T) {
	tr := NewTransform(20, 10)
	got := tr.BBox()
	want := Rect{Width: 20, Height: 10}
	if got != want {
		t.Fatalf("BBox = %+v, want %+v", got, want)
	}

	tr.Rotate = 90
	got = tr.BBox()
	if math.Abs(got.X-5) > eps || math.Abs(got.Y+5) > eps ||
		math.Abs(got.Width-10) > eps || math.Abs(got.Height-20) > eps {
		t.Fatalf("rotated BBox = %+v", got)
	}
}

func TestBoxIntersect(t *testing.T) {
	a := NewTransform(10, 10)
	b := NewTransform(10, 10)
	b.TX = 5
	if !BoxIntersect(a, b) {
		t.Fatal("overlapping boxes should intersect")
	}

	b.TX = 30
	if BoxIntersect(a, b) {
		t.Fatal("disjoint boxes should not intersect")
	}

	// A 45 degree turn grows the box enough to reach a neighbour 12px away.
	b.TX = 12
	if BoxIntersect(a, b) {
		t.Fatal("axis aligned neighbours should not intersect")
	}
	a.Rotate = 45
	if !BoxIntersect(a, b) {
		t.Fatal("rotated box should reach its neighbour")
	}
}

func TestRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 5}
	if !r.Contains(r2.Vec{X: 10, Y: 5}) {
		t.Error("Contains should include the far corner")
	}
	if r.Contains(r2.Vec{X: 10.5, Y: 1}) {
		t.Error("Contains accepted an outside point")
	}
	u := r.Union(Rect{X: 20, Y: -5, Width: 1, Height: 1})
	if u != (Rect{X: 0, Y: -5, Width: 21, Height: 10}) {
		t.Errorf("Union = %+v", u)
	}
	if (Rect{}).Union(r) != r {
		t.Error("Union with empty rect should return the other")
	}
}
