package project

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/engine"
	"github.com/inamate/stamps/internal/store"
)

func opaque(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

type fakeHistory struct {
	mu    sync.Mutex
	snaps []store.Snapshot
}

func (f *fakeHistory) Create(ctx context.Context, svg *document.SVG) (*store.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := store.Snapshot{
		ID:        fmt.Sprintf("snap_%d", len(f.snaps)+1),
		Version:   len(f.snaps) + 1,
		CreatedAt: time.Now(),
		Document:  svg,
	}
	f.snaps = append(f.snaps, snap)
	return &snap, nil
}

func (f *fakeHistory) Get(ctx context.Context, id string) (*store.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.snaps {
		if f.snaps[i].ID == id {
			return &f.snaps[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snaps[:min(limit, len(f.snaps))], nil
}

func newTestRouter(t *testing.T, history History) (http.Handler, *store.MemoryStore) {
	t.Helper()
	lib := &asset.Library{
		Cursor: opaque(4, 4),
		Mask:   opaque(100, 50),
		Stamps: []asset.Image{
			{Name: "pipe", Image: opaque(10, 40)},
			{Name: "rect", Image: opaque(20, 10)},
		},
	}
	mem := &store.MemoryStore{}
	e := engine.New(lib, document.NewEmptyDocument(1024, 768), mem, 800, 600)

	r := mux.NewRouter()
	NewHandler(NewService(e, history)).Routes(r.PathPrefix("/api").Subrouter())
	return r, mem
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec
}

func decodeStep(t *testing.T, rec *httptest.ResponseRecorder) StepResult {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var res StepResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

func TestFrame(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(t, h, "GET", "/api/frame", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var f engine.Frame
	if err := json.NewDecoder(rec.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Width != 800 || f.Height != 600 || len(f.Palette) != 2 || len(f.Masks) != 2 {
		t.Errorf("frame %dx%d palette %d masks %d", f.Width, f.Height, len(f.Palette), len(f.Masks))
	}
}

func TestInputPlaceUndoRedo(t *testing.T) {
	h, mem := newTestRouter(t, nil)

	res := decodeStep(t, do(t, h, "POST", "/api/input", `{"pointer":{"x":5,"y":45},"click":true}`))
	if res.Effects.Saved {
		t.Error("picking saved the document")
	}
	res = decodeStep(t, do(t, h, "POST", "/api/input", `{"pointer":{"x":30,"y":15},"click":true}`))
	if !res.Effects.Saved || len(res.Frame.Stamps) != 1 {
		t.Fatalf("place: saved %v stamps %d", res.Effects.Saved, len(res.Frame.Stamps))
	}
	if len(mem.Bytes()) == 0 {
		t.Error("placement was not saved")
	}

	rec := do(t, h, "GET", "/api/document", "")
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	svg, err := document.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parse served document: %v", err)
	}
	if len(svg.Stamps) != 1 || svg.Stamps[0].Href.URL != "rect" {
		t.Errorf("served stamps = %+v", svg.Stamps)
	}

	if res := decodeStep(t, do(t, h, "POST", "/api/undo", "")); len(res.Frame.Stamps) != 0 {
		t.Errorf("after undo: %d stamps", len(res.Frame.Stamps))
	}
	if res := decodeStep(t, do(t, h, "POST", "/api/redo", "")); len(res.Frame.Stamps) != 1 {
		t.Errorf("after redo: %d stamps", len(res.Frame.Stamps))
	}
}

func TestInputErrors(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	if rec := do(t, h, "POST", "/api/input", `{"pressed":["jump"]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action: status %d", rec.Code)
	}
	if rec := do(t, h, "POST", "/api/input", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", rec.Code)
	}
}

func TestTextures(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, "GET", "/api/textures?url=rect", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("rect: status %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, _, err := image.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("texture bounds %v", img.Bounds())
	}

	if rec := do(t, h, "GET", "/api/textures?url=mask.bmp", ""); rec.Code != http.StatusOK {
		t.Errorf("mask glyph: status %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/textures?url=nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown: status %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/textures", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status %d", rec.Code)
	}
}

func TestCommitWithoutHistory(t *testing.T) {
	h, mem := newTestRouter(t, nil)

	rec := do(t, h, "POST", "/api/commit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("commit: status %d", rec.Code)
	}
	if len(mem.Bytes()) == 0 {
		t.Error("commit did not save")
	}
	if rec := do(t, h, "GET", "/api/snapshots", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("snapshots: status %d", rec.Code)
	}
}

func TestCommitWithHistory(t *testing.T) {
	history := &fakeHistory{}
	h, _ := newTestRouter(t, history)

	rec := do(t, h, "POST", "/api/commit", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: status %d", rec.Code)
	}
	var snap store.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != "snap_1" || snap.Version != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = do(t, h, "GET", "/api/snapshots?limit=10", "")
	var list []store.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("list: %v, %d entries", err, len(list))
	}

	rec = do(t, h, "GET", "/api/snapshots/snap_1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	if _, err := document.Parse(rec.Body.Bytes()); err != nil {
		t.Errorf("snapshot body: %v", err)
	}

	if rec := do(t, h, "GET", "/api/snapshots/snap_9", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot: status %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/snapshots?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status %d", rec.Code)
	}
}
