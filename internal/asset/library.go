// Package asset loads the source images the editor works with and serves
// them over HTTP.
package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/text/unicode/norm"

	"github.com/inamate/stamps/internal/document"
)

const (
	CursorFile = "cursor.bmp"
	MaskFile   = "mask.bmp"
	StampsDir  = "stamps"
)

var ErrInvalidName = errors.New("invalid stamp name")

// Image is a named source image. Name is the url key documents use to refer
// to it.
type Image struct {
	Name  string
	Image *image.RGBA
}

// Library holds every image loaded from an asset directory.
type Library struct {
	Cursor *image.RGBA
	Mask   *image.RGBA
	Stamps []Image
}

// Load reads cursor.bmp, mask.bmp and every image below stamps/ from dir.
// Stamps are sorted by name. Any unreadable image fails the load.
func Load(dir string) (*Library, error) {
	cursor, err := decodeFile(filepath.Join(dir, CursorFile))
	if err != nil {
		return nil, fmt.Errorf("load cursor image: %w", err)
	}
	mask, err := decodeFile(filepath.Join(dir, MaskFile))
	if err != nil {
		return nil, fmt.Errorf("load mask paper image: %w", err)
	}

	lib := &Library{Cursor: cursor, Mask: mask}
	root := filepath.Join(dir, StampsDir)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := StampName(rel)
		if err := ValidName(name); err != nil {
			slog.Warn("skipping stamp file", "path", p, "error", err)
			return nil
		}
		img, err := decodeFile(p)
		if err != nil {
			return fmt.Errorf("load stamp %s: %w", p, err)
		}
		lib.Stamps = append(lib.Stamps, Image{Name: name, Image: img})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(lib.Stamps, func(a, b Image) int {
		return strings.Compare(a.Name, b.Name)
	})
	lib.Stamps = slices.CompactFunc(lib.Stamps, func(a, b Image) bool {
		if a.Name == b.Name {
			slog.Warn("duplicate stamp name, keeping first", "name", a.Name)
			return true
		}
		return false
	})

	slog.Info("assets loaded", "dir", dir, "stamps", len(lib.Stamps))
	return lib, nil
}

// StampName derives the url key for a file path relative to stamps/: slash
// separated, extension dropped, NFC normalized.
func StampName(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return norm.NFC.String(rel)
}

// ValidName reports whether name can be used as a stamp key. Names must
// survive a save and reload of the document unchanged.
func ValidName(name string) error {
	if !document.ValidText(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == "" || name != StampName(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Find returns the stamp with the given name.
func (l *Library) Find(name string) (Image, bool) {
	i, ok := slices.BinarySearchFunc(l.Stamps, name, func(img Image, name string) int {
		return strings.Compare(img.Name, name)
	})
	if !ok {
		return Image{}, false
	}
	return l.Stamps[i], true
}

// Insert adds or replaces a stamp, keeping the list sorted. It reports
// whether the name was new.
func (l *Library) Insert(img Image) bool {
	i, ok := slices.BinarySearchFunc(l.Stamps, img.Name, func(s Image, name string) int {
		return strings.Compare(s.Name, name)
	})
	if ok {
		l.Stamps[i] = img
		return false
	}
	l.Stamps = slices.Insert(l.Stamps, i, img)
	return true
}

func decodeFile(p string) (*image.RGBA, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts img to an RGBA buffer whose bounds start at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
