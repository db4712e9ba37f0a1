package engine

import (
	"image"
	"image/color"
	"testing"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
)

func opaque(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// testLibrary has a 10x40 pipe and a 20x10 rect, a 100x50 mask and a 4x4
// cursor.
func testLibrary() *asset.Library {
	return &asset.Library{
		Cursor: opaque(4, 4),
		Mask:   opaque(100, 50),
		Stamps: []asset.Image{
			{Name: "pipe", Image: opaque(10, 40)},
			{Name: "rect", Image: opaque(20, 10)},
		},
	}
}

func TestInventoryLayout(t *testing.T) {
	inv := NewInventory([]asset.Image{
		{Name: "a", Image: opaque(10, 30)},
		{Name: "b", Image: opaque(25, 30)},
		{Name: "c", Image: opaque(5, 30)},
		{Name: "d", Image: opaque(5, 80)},
	})
	inv.Layout(70)

	want := []geom.Rect{
		{X: 0, Y: 0, Width: 10, Height: 30},
		{X: 0, Y: 30, Width: 25, Height: 30},
		{X: 25, Y: 0, Width: 5, Height: 30},
		{X: 30, Y: 0, Width: 5, Height: 80},
	}
	for i, item := range inv.Palette() {
		if item.Bounds != want[i] {
			t.Errorf("item %s bounds = %+v, want %+v", item.Name, item.Bounds, want[i])
		}
	}
}

func TestInventoryRotDelta(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"rect", 90},
		{"ramps/lhalframp", 90},
		{"ramps/rquartramp", -90},
		{"circle", 0},
	}
	for _, tt := range tests {
		if got := rotDelta(tt.name); got != tt.want {
			t.Errorf("rotDelta(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInventoryHitTest(t *testing.T) {
	inv := NewInventory(testLibrary().Stamps)
	inv.Layout(600)

	tests := []struct {
		x, y int
		want string
		ok   bool
	}{
		{0, 0, "pipe", true},
		{10, 40, "pipe", true}, // edges are inclusive; first match wins
		{10, 41, "rect", true},
		{20, 50, "rect", true},
		{21, 45, "", false},
		{-1, 0, "", false},
	}
	for _, tt := range tests {
		item, ok := inv.HitTest(tt.x, tt.y)
		if ok != tt.ok || item.Name != tt.want {
			t.Errorf("HitTest(%d, %d) = %q, %v, want %q, %v", tt.x, tt.y, item.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestInventoryScan(t *testing.T) {
	svg := document.NewEmptyDocument(100, 100)
	arr := NewArrangement(svg)
	inv := NewInventory(testLibrary().Stamps)

	tr := geom.NewTransform(20, 10)
	clip := svg.RegisterClip(document.Polygon{
		{X: -40, Y: -20}, {X: 40, Y: -20}, {X: 40, Y: 20}, {X: -40, Y: 20}, {X: -40, Y: -20},
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
		{X: -40, Y: -20},
	})
	arr.PushStamp(tr, "rect", "", document.Color{})
	arr.PushStamp(tr, "rect", clip, document.Color{})
	arr.PushStamp(tr, "rect", clip, document.Color{R: 1})
	arr.PushStamp(tr, "missing", "", document.Color{})
	arr.PushStamp(tr, "pipe", "url(#42)", document.Color{})

	if n := inv.Scan(arr); n != 1 {
		t.Fatalf("Scan created %d textures, want 1", n)
	}
	if arr.Dirty() {
		t.Fatal("Scan left the arrangement dirty")
	}

	img, ok := inv.Lookup(document.Href{URL: "rect", Clip: clip})
	if !ok {
		t.Fatal("clipped texture missing")
	}
	if got := img.RGBAAt(1, 5); got != (color.RGBA{}) {
		t.Errorf("pixel inside the hole = %v, want transparent", got)
	}
	if got := img.RGBAAt(10, 5); got.A != 0xff {
		t.Errorf("pixel outside the hole = %v, want opaque", got)
	}
	src, _ := inv.Lookup(document.Href{URL: "rect"})
	if src.RGBAAt(1, 5).A != 0xff {
		t.Error("clipping modified the source image")
	}

	if _, ok := inv.Lookup(document.Href{URL: "missing"}); ok {
		t.Error("stamp with unknown url was cached")
	}
	if _, ok := inv.Lookup(document.Href{URL: "pipe", Clip: "url(#42)"}); ok {
		t.Error("stamp with unresolved clip was cached")
	}
}

func TestInventoryScanIdempotent(t *testing.T) {
	svg := document.NewEmptyDocument(100, 100)
	arr := NewArrangement(svg)
	inv := NewInventory(testLibrary().Stamps)
	clip := svg.RegisterClip(nil)
	arr.PushStamp(geom.NewTransform(10, 40), "pipe", clip, document.Color{})

	inv.Scan(arr)
	n := inv.Len()
	if created := inv.Scan(arr); created != 0 {
		t.Fatalf("second Scan created %d textures", created)
	}
	if inv.Len() != n || arr.Dirty() {
		t.Fatalf("second Scan changed state: len %d -> %d, dirty %v", n, inv.Len(), arr.Dirty())
	}

	// Marking dirty without new hrefs rescans but builds nothing.
	arr.Mut()
	if created := inv.Scan(arr); created != 0 || inv.Len() != n {
		t.Fatalf("rescan created %d textures", created)
	}
}

func TestInventoryAddSource(t *testing.T) {
	inv := NewInventory(testLibrary().Stamps)
	inv.AddSource(asset.Image{Name: "dot", Image: opaque(3, 3)})
	inv.AddSource(asset.Image{Name: "rect", Image: opaque(7, 7)})
	inv.Layout(600)

	if len(inv.Palette()) != 3 {
		t.Fatalf("palette size = %d, want 3", len(inv.Palette()))
	}
	if got := inv.Palette()[2]; got.Name != "dot" || got.Bounds.Y != 47 {
		t.Errorf("dot = %+v", got)
	}
	img, _ := inv.Lookup(document.Href{URL: "rect"})
	if img.Bounds().Dx() != 7 {
		t.Error("AddSource did not replace rect")
	}
}
