// Package store persists documents: a file on disk as the primary copy and
// optional versioned snapshots in Postgres.
package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inamate/stamps/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Store loads and saves the current document.
type Store interface {
	Load(ctx context.Context) (*document.SVG, error)
	Save(ctx context.Context, svg *document.SVG) error
}

// LoadOrDefault loads the saved document, falling back to a blank
// width x height document when nothing usable is stored.
func LoadOrDefault(ctx context.Context, s Store, width, height uint32) *document.SVG {
	svg, err := s.Load(ctx)
	switch {
	case err == nil:
		slog.Info("document loaded", "stamps", len(svg.Stamps), "clips", len(svg.Defs.ClipPaths))
		return svg
	case errors.Is(err, ErrNotFound):
		slog.Info("no saved document, starting blank", "width", width, "height", height)
	default:
		slog.Warn("load document failed, starting blank", "error", err)
	}
	return document.NewEmptyDocument(width, height)
}

// Mirror saves to a primary store and, best effort, to a secondary one.
// Only the primary's errors are returned; loads come from the primary.
type Mirror struct {
	Primary   Store
	Secondary Store
}

func (m *Mirror) Load(ctx context.Context) (*document.SVG, error) {
	return m.Primary.Load(ctx)
}

func (m *Mirror) Save(ctx context.Context, svg *document.SVG) error {
	if err := m.Primary.Save(ctx, svg); err != nil {
		return err
	}
	if m.Secondary != nil {
		if err := m.Secondary.Save(ctx, svg); err != nil {
			slog.Warn("snapshot mirror failed", "error", err)
		}
	}
	return nil
}
