package asset

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/blake2b"
)

const maxUploadSize = 10 << 20 // 10MB

// Registry is the live set of stamps the handler reads and extends.
type Registry interface {
	Stamps() []Image
	AddStamp(img Image)
}

// StampInfo describes one stamp in listings and upload responses.
type StampInfo struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Handler serves stamp listing, download and upload endpoints.
type Handler struct {
	dir string // asset directory; uploads go below its stamps/ folder
	reg Registry
}

// NewHandler creates a new asset handler that stores uploads below dir.
func NewHandler(dir string, reg Registry) *Handler {
	return &Handler{dir: dir, reg: reg}
}

// List handles GET /api/stamps.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stamps := h.reg.Stamps()
	infos := make([]StampInfo, 0, len(stamps))
	for _, s := range stamps {
		infos = append(infos, info(s))
	}
	writeJSON(w, http.StatusOK, infos)
}

// Get handles GET /api/stamps/{name}: the stamp encoded as PNG.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var found *Image
	for _, s := range h.reg.Stamps() {
		if s.Name == name {
			found = &s
			break
		}
	}
	if found == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	ServePNG(w, r, found.Image)
}

// Upload handles POST /api/stamps (multipart form with "file" and "name").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = StampName(header.Filename)
	}
	if err := ValidName(name); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image: " + err.Error()})
		return
	}
	stamp := Image{Name: name, Image: ToRGBA(img)}

	if err := h.save(stamp); err != nil {
		slog.Error("save stamp", "error", err, "name", name)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save file"})
		return
	}
	h.reg.AddStamp(stamp)
	slog.Info("stamp uploaded", "name", name)

	writeJSON(w, http.StatusCreated, info(stamp))
}

func (h *Handler) save(stamp Image) error {
	p := filepath.Join(h.dir, StampsDir, filepath.FromSlash(stamp.Name)+".png")
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	out, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := png.Encode(out, stamp.Image); err != nil {
		out.Close()
		os.Remove(p)
		return err
	}
	return out.Close()
}

// ServePNG writes img as PNG with a content hash ETag, answering matching
// If-None-Match requests with 304.
func ServePNG(w http.ResponseWriter, r *http.Request, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode png", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to encode image"})
		return
	}

	etag := ETag(buf.Bytes())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func info(s Image) StampInfo {
	b := s.Image.Bounds()
	return StampInfo{
		Name:   s.Name,
		URL:    "/api/stamps/" + s.Name,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
