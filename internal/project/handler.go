package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/engine"
)

const defaultSnapshotLimit = 50

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the editing endpoints on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/document", h.GetDocument).Methods("GET")
	r.HandleFunc("/frame", h.GetFrame).Methods("GET")
	r.HandleFunc("/input", h.Input).Methods("POST")
	r.HandleFunc("/undo", h.Undo).Methods("POST")
	r.HandleFunc("/redo", h.Redo).Methods("POST")
	r.HandleFunc("/commit", h.Commit).Methods("POST")
	r.HandleFunc("/textures", h.GetTexture).Methods("GET")
	r.HandleFunc("/snapshots", h.ListSnapshots).Methods("GET")
	r.HandleFunc("/snapshots/{snapshotId}", h.GetSnapshot).Methods("GET")
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	writeSVG(w, h.service.Document())
}

func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Frame())
}

func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	var req engine.InputMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.service.Input(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Undo(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Redo(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Commit(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetTexture serves the texture for ?url=&clip= as PNG.
func (h *Handler) GetTexture(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := document.Href{URL: q.Get("url"), Clip: q.Get("clip")}
	if key.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	img, err := h.service.Texture(key)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	asset.ServePNG(w, r, img)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	snaps, err := h.service.ListSnapshots(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := mux.Vars(r)["snapshotId"]

	snap, err := h.service.GetSnapshot(r.Context(), snapshotID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeSVG(w, snap.Document)
}

func writeSVG(w http.ResponseWriter, svg *document.SVG) {
	data, err := document.Marshal(svg)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrBadInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrUnavailable):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "snapshot history is not configured"})
	case errors.Is(err, engine.ErrSave):
		slog.Error("save failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
