package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inamate/stamps/internal/document"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "example.svg"))

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of missing file = %v, want ErrNotFound", err)
	}

	doc := document.NewSampleDocument()
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(doc) {
		t.Fatal("loaded document differs from saved one")
	}

	// Saves overwrite.
	if err := s.Save(ctx, document.NewEmptyDocument(3, 4)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = s.Load(ctx)
	if len(got.Stamps) != 0 || got.Width != 3 {
		t.Fatalf("overwritten document = %+v", got)
	}
}

func TestFileStoreMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.svg")
	if err := os.WriteFile(p, []byte("<svg><g transform=\"oops\"></g></svg>"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(p).Load(context.Background())
	if !errors.Is(err, document.ErrMalformed) {
		t.Fatalf("Load = %v, want ErrMalformed", err)
	}
}

func TestFileStoreSaveFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing-dir", "x.svg"))
	if err := s.Save(context.Background(), document.NewEmptyDocument(1, 1)); err == nil {
		t.Fatal("Save into a missing directory succeeded")
	}
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	got := LoadOrDefault(ctx, NewFileStore(filepath.Join(dir, "none.svg")), 1024, 768)
	if got.Width != 1024 || got.Height != 768 || len(got.Stamps) != 0 {
		t.Errorf("missing file: %+v", got)
	}

	bad := filepath.Join(dir, "bad.svg")
	os.WriteFile(bad, []byte("garbage"), 0644)
	got = LoadOrDefault(ctx, NewFileStore(bad), 10, 20)
	if got.Width != 10 || got.Height != 20 {
		t.Errorf("malformed file: %+v", got)
	}

	good := NewFileStore(filepath.Join(dir, "good.svg"))
	good.Save(ctx, document.NewSampleDocument())
	got = LoadOrDefault(ctx, good, 10, 20)
	if len(got.Stamps) == 0 {
		t.Error("saved document was not loaded")
	}
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context) (*document.SVG, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *document.SVG) error   { return f.err }

func TestMirror(t *testing.T) {
	ctx := context.Background()
	primary := &MemoryStore{}
	m := &Mirror{Primary: primary, Secondary: failingStore{errors.New("db down")}}

	if err := m.Save(ctx, document.NewEmptyDocument(5, 5)); err != nil {
		t.Fatalf("Save with failing secondary = %v", err)
	}
	if primary.Bytes() == nil {
		t.Fatal("primary was not written")
	}
	got, err := m.Load(ctx)
	if err != nil || got.Width != 5 {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	secondary := &MemoryStore{}
	boom := errors.New("disk full")
	m = &Mirror{Primary: failingStore{boom}, Secondary: secondary}
	if err := m.Save(ctx, document.NewEmptyDocument(5, 5)); !errors.Is(err, boom) {
		t.Fatalf("Save with failing primary = %v", err)
	}
	if secondary.Bytes() != nil {
		t.Fatal("secondary written after the primary failed")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := &MemoryStore{}
	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load = %v, want ErrNotFound", err)
	}
	doc := document.NewSampleDocument()
	s.Save(ctx, doc)
	got, err := s.Load(ctx)
	if err != nil || !got.Equal(doc) {
		t.Fatalf("Load = %v", err)
	}
}
