package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/typeid"
)

// Source is the live document and its textures.
type Source interface {
	Document() *document.SVG
	Texture(key document.Href) (*image.RGBA, bool)
}

type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// ExportSVG downloads the current document.
func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	id := typeid.NewExportID()
	svg := h.source.Document()
	data, err := document.Marshal(svg)
	if err != nil {
		slog.Error("marshal document", "error", err, "export", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, "image/svg+xml", fileName(r, "svg"), data)
	slog.Info("export complete", "export", id, "format", "svg", "size", len(data))
}

// ExportPNG renders the current document and downloads it as PNG.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	id := typeid.NewExportID()
	svg := h.source.Document()
	if svg.Width == 0 || svg.Height == 0 {
		http.Error(w, "document is empty", http.StatusConflict)
		return
	}

	img := Render(svg, h.source.Texture)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode png", "error", err, "export", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, "image/png", fileName(r, "png"), buf.Bytes())
	slog.Info("export complete", "export", id, "format", "png", "stamps", len(svg.Stamps), "size", buf.Len())
}

func writeAttachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// fileName builds the download name from the "name" query parameter.
func fileName(r *http.Request, ext string) string {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "arrangement"
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	return name + "." + ext
}
