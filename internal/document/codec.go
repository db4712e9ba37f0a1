package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/stamps/internal/geom"
)

var ErrMalformed = errors.New("malformed document")

const svgNamespace = "http://www.w3.org/2000/svg"

type xmlSVG struct {
	XMLName xml.Name `xml:"svg"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Width   uint32   `xml:"width,attr"`
	Height  uint32   `xml:"height,attr"`
	Defs    xmlDefs  `xml:"defs"`
	Groups  []xmlG   `xml:"g"`
}

type xmlDefs struct {
	ClipPaths []xmlClipPath `xml:"clipPath"`
}

type xmlClipPath struct {
	ID      string     `xml:"id,attr"`
	Polygon xmlPolygon `xml:"polygon"`
}

type xmlPolygon struct {
	Points string `xml:"points,attr"`
}

type xmlG struct {
	Transform string  `xml:"transform,attr"`
	Rect      xmlRect `xml:"rect"`
}

type xmlRect struct {
	Href     string `xml:"href,attr"`
	ClipPath string `xml:"clip-path,attr,omitempty"`
	Fill     string `xml:"fill,attr"`
	Width    uint32 `xml:"width,attr"`
	Height   uint32 `xml:"height,attr"`
}

// Marshal encodes the document as SVG text.
func Marshal(d *SVG) ([]byte, error) {
	doc := xmlSVG{
		Xmlns:  svgNamespace,
		Width:  d.Width,
		Height: d.Height,
	}
	for _, c := range d.Defs.ClipPaths {
		if !ValidText(c.ID) {
			return nil, fmt.Errorf("%w: clip id %q is not valid XML text", ErrMalformed, c.ID)
		}
		doc.Defs.ClipPaths = append(doc.Defs.ClipPaths, xmlClipPath{
			ID:      c.ID,
			Polygon: xmlPolygon{Points: formatPoints(c.Polygon)},
		})
	}
	for i, s := range d.Stamps {
		if !ValidText(s.Href.URL) || !ValidText(s.Href.Clip) {
			return nil, fmt.Errorf("%w: stamp %d href %q is not valid XML text", ErrMalformed, i, s.Href.URL+"#"+s.Href.Clip)
		}
		doc.Groups = append(doc.Groups, xmlG{
			Transform: formatTransform(s.Transform),
			Rect: xmlRect{
				Href:     s.Href.URL,
				ClipPath: s.Href.Clip,
				Fill:     s.Fill.Hex(),
				Width:    s.Width,
				Height:   s.Height,
			},
		})
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode svg: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ValidText reports whether s can be stored in an attribute and read back
// unchanged: valid UTF-8 made only of XML Char runes.
func ValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Parse decodes SVG text produced by Marshal. Any structural or attribute
// error is reported wrapped in ErrMalformed.
func Parse(data []byte) (*SVG, error) {
	var doc xmlSVG
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	d := NewEmptyDocument(doc.Width, doc.Height)
	for _, c := range doc.Defs.ClipPaths {
		poly, err := parsePoints(c.Polygon.Points)
		if err != nil {
			return nil, fmt.Errorf("%w: clip %q: %v", ErrMalformed, c.ID, err)
		}
		d.Defs.ClipPaths = append(d.Defs.ClipPaths, ClipPath{ID: c.ID, Polygon: poly})
	}
	for i, g := range doc.Groups {
		t, err := parseTransform(g.Transform)
		if err != nil {
			return nil, fmt.Errorf("%w: stamp %d: %v", ErrMalformed, i, err)
		}
		fill, err := parseColor(g.Rect.Fill)
		if err != nil {
			return nil, fmt.Errorf("%w: stamp %d: %v", ErrMalformed, i, err)
		}
		d.Stamps = append(d.Stamps, Stamp{
			Transform: t,
			Href:      Href{URL: g.Rect.Href, Clip: g.Rect.ClipPath},
			Fill:      fill,
			Width:     g.Rect.Width,
			Height:    g.Rect.Height,
		})
	}
	return d, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatPoints(p Polygon) string {
	parts := make([]string, len(p))
	for i, pt := range p {
		parts[i] = formatFloat(pt.X) + "," + formatFloat(pt.Y)
	}
	return strings.Join(parts, " ")
}

func parsePoints(s string) (Polygon, error) {
	var poly Polygon
	for _, field := range strings.Fields(s) {
		xs, ys, ok := strings.Cut(field, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: missing comma", field)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", field, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", field, err)
		}
		poly = append(poly, r2.Vec{X: x, Y: y})
	}
	return poly, nil
}

func formatTransform(t geom.Transform) string {
	return fmt.Sprintf("translate(%s %s) rotate(%s %s %s)",
		formatFloat(t.TX), formatFloat(t.TY),
		formatFloat(t.Rotate), formatFloat(t.MidX), formatFloat(t.MidY))
}

// parseTransform reads a list of translate(...) and rotate(...) functions.
// A rotate without a center leaves the pivot at the origin.
func parseTransform(s string) (geom.Transform, error) {
	var t geom.Transform
	rest := strings.TrimSpace(s)
	for rest != "" {
		name, after, ok := strings.Cut(rest, "(")
		if !ok {
			return t, fmt.Errorf("transform %q: missing '('", s)
		}
		body, tail, ok := strings.Cut(after, ")")
		if !ok {
			return t, fmt.Errorf("transform %q: missing ')'", s)
		}
		args, err := parseArgs(body)
		if err != nil {
			return t, fmt.Errorf("transform %q: %w", s, err)
		}

		switch strings.TrimSpace(name) {
		case "translate":
			if len(args) < 1 || len(args) > 2 {
				return t, fmt.Errorf("translate expects 1 or 2 arguments, got %d", len(args))
			}
			t.TX = args[0]
			if len(args) == 2 {
				t.TY = args[1]
			}
		case "rotate":
			switch len(args) {
			case 1:
				t.Rotate = args[0]
			case 3:
				t.Rotate, t.MidX, t.MidY = args[0], args[1], args[2]
			default:
				return t, fmt.Errorf("rotate expects 1 or 3 arguments, got %d", len(args))
			}
		default:
			return t, fmt.Errorf("unsupported transform function %q", name)
		}
		rest = strings.TrimLeft(tail, " \t\n,")
	}
	return t, nil
}

func parseArgs(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return Color{}, fmt.Errorf("fill %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("fill %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
