package document

import (
	"strconv"
	"strings"
)

// ClipHref returns the reference string a stamp uses for clip id.
func ClipHref(id string) string {
	return "url(#" + id + ")"
}

// ClipID extracts the id from a "url(#id)" reference.
func ClipID(href string) (string, bool) {
	id, ok := strings.CutPrefix(href, "url(#")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(id, ")")
}

// RegisterClip appends poly as a new clip definition and returns its href.
// Ids are numeric and never reused: the fresh id is past both the number of
// definitions and the largest numeric id already present.
func (d *SVG) RegisterClip(poly Polygon) string {
	next := len(d.Defs.ClipPaths)
	for _, c := range d.Defs.ClipPaths {
		if n, err := strconv.Atoi(c.ID); err == nil && n >= next {
			next = n + 1
		}
	}

	id := strconv.Itoa(next)
	d.Defs.ClipPaths = append(d.Defs.ClipPaths, ClipPath{ID: id, Polygon: poly})
	return ClipHref(id)
}

// ResolveClip finds the polygon referenced by href. A missing definition is
// reported with ok=false and is not an error.
func (d *SVG) ResolveClip(href string) (Polygon, bool) {
	for _, c := range d.Defs.ClipPaths {
		if ClipHref(c.ID) == href {
			return c.Polygon, true
		}
	}
	return nil, false
}
