package engine

import (
	"image"
	"log/slog"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
	"github.com/inamate/stamps/internal/raster"
)

// rotDeltas turn some stamps when they are picked so they start out in
// their natural orientation. Later matches win.
var rotDeltas = []struct {
	substr string
	delta  float64
}{
	{"rect", 90},
	{"pipe", 90},
	{"lhalframp", 90},
	{"lquartramp", 90},
	{"rhalframp", -90},
	{"rquartramp", -90},
}

func rotDelta(name string) float64 {
	var d float64
	for _, r := range rotDeltas {
		if strings.Contains(name, r.substr) {
			d = r.delta
		}
	}
	return d
}

// PaletteItem is a source stamp laid out in the palette.
type PaletteItem struct {
	Name     string
	Bounds   geom.Rect
	RotDelta float64
}

// Inventory caches one texture per distinct href: the unclipped source
// images plus one rasterized copy per clip variant in use. It only ever
// reads the document; entries are never evicted.
type Inventory struct {
	textures []*image.RGBA
	index    map[document.Href]int
	palette  []PaletteItem
	raster   raster.Rasterizer
}

// NewInventory registers every source stamp under its unclipped href.
func NewInventory(stamps []asset.Image) *Inventory {
	inv := &Inventory{index: make(map[document.Href]int)}
	for _, s := range stamps {
		inv.AddSource(s)
	}
	return inv
}

// AddSource registers a new source image and appends it to the palette.
// Re-adding a known name replaces its unclipped texture only; clipped
// variants already built from the old image are kept. Call Layout afterwards.
func (inv *Inventory) AddSource(s asset.Image) {
	key := document.Href{URL: s.Name}
	if i, ok := inv.index[key]; ok {
		inv.textures[i] = s.Image
		return
	}
	inv.index[key] = len(inv.textures)
	inv.textures = append(inv.textures, s.Image)
	inv.palette = append(inv.palette, PaletteItem{Name: s.Name, RotDelta: rotDelta(s.Name)})
}

// Layout packs the palette top to bottom into columns no taller than the
// viewport.
func (inv *Inventory) Layout(viewportHeight uint32) {
	var x, y, colWidth int
	for i := range inv.palette {
		item := &inv.palette[i]
		size := inv.textures[inv.index[document.Href{URL: item.Name}]].Bounds().Size()
		if y+size.Y > int(viewportHeight) {
			y = 0
			x += colWidth
			colWidth = 0
		}
		item.Bounds = geom.Rect{
			X:      float64(x),
			Y:      float64(y),
			Width:  float64(size.X),
			Height: float64(size.Y),
		}
		colWidth = max(colWidth, size.X)
		y += size.Y
	}
}

// Palette returns the laid out source stamps in insertion order.
func (inv *Inventory) Palette() []PaletteItem {
	return inv.palette
}

// HitTest returns the first palette item whose bounds, edges included,
// contain (x, y).
func (inv *Inventory) HitTest(x, y int) (PaletteItem, bool) {
	p := r2.Vec{X: float64(x), Y: float64(y)}
	for _, item := range inv.palette {
		if item.Bounds.Contains(p) {
			return item, true
		}
	}
	return PaletteItem{}, false
}

// Lookup returns the cached texture for key.
func (inv *Inventory) Lookup(key document.Href) (*image.RGBA, bool) {
	i, ok := inv.index[key]
	if !ok {
		return nil, false
	}
	return inv.textures[i], true
}

// Len returns the number of cached textures.
func (inv *Inventory) Len() int {
	return len(inv.textures)
}

// Scan builds the textures for every href in the document that is not cached
// yet and marks the arrangement clean. It does nothing when the arrangement
// is clean. Stamps whose source image is unknown are skipped, as are stamps
// whose clip reference does not resolve. It returns the number of textures
// created.
func (inv *Inventory) Scan(a *Arrangement) int {
	if !a.Dirty() {
		return 0
	}

	created := 0
	svg := a.Get()
	for _, s := range svg.Stamps {
		if _, ok := inv.index[s.Href]; ok {
			continue
		}

		var poly document.Polygon
		if s.Href.Clip != "" {
			p, ok := svg.ResolveClip(s.Href.Clip)
			if !ok {
				slog.Debug("skipping stamp with unresolved clip", "url", s.Href.URL, "clip", s.Href.Clip)
				continue
			}
			poly = p
		}

		src, ok := inv.Lookup(document.Href{URL: s.Href.URL})
		if !ok {
			slog.Debug("skipping stamp with unknown image", "url", s.Href.URL)
			continue
		}

		img := asset.ToRGBA(src)
		inv.raster.Clip(img, poly)
		inv.index[s.Href] = len(inv.textures)
		inv.textures = append(inv.textures, img)
		created++
		slog.Debug("texture created", "url", s.Href.URL, "clip", s.Href.Clip)
	}

	a.markClean()
	return created
}
