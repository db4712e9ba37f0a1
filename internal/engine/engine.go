package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
)

// ErrSave marks a failed save. The interactive session cannot continue
// after it.
var ErrSave = errors.New("save document")

// Saver persists documents.
type Saver interface {
	Save(ctx context.Context, svg *document.SVG) error
}

// Engine owns the arrangement, the texture cache and the session. Every
// step runs apply, scan and frame under one lock, so a scan always sees a
// fully applied input.
type Engine struct {
	mu      sync.Mutex
	lib     *asset.Library
	arr     *Arrangement
	inv     *Inventory
	session *Session
	saver   Saver

	observers []func(Frame)
	done      chan struct{}
	quitOnce  sync.Once
	failed    chan error
}

// New creates an engine editing svg in a width x height viewport.
func New(lib *asset.Library, svg *document.SVG, saver Saver, width, height uint32) *Engine {
	arr := NewArrangement(svg)
	inv := NewInventory(lib.Stamps)
	mask := lib.Mask.Bounds().Size()
	e := &Engine{
		lib:     lib,
		arr:     arr,
		inv:     inv,
		session: NewSession(arr, inv, uint32(mask.X), uint32(mask.Y), width, height),
		saver:   saver,
		done:    make(chan struct{}),
		failed:  make(chan error, 1),
	}
	if n := inv.Scan(arr); n > 0 {
		slog.Debug("textures prepared", "count", n)
	}
	return e
}

// Observe registers fn to receive the frame produced by every step. It must
// be called before the engine is shared.
func (e *Engine) Observe(fn func(Frame)) {
	e.observers = append(e.observers, fn)
}

// Done is closed once an input asked to quit.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Failed delivers the first save error raised by Step. The session must
// end when it fires.
func (e *Engine) Failed() <-chan error {
	return e.failed
}

// Step applies one input, saves when the input asks for it, refreshes the
// texture cache and returns the resulting frame. A save failure is returned
// wrapped in ErrSave and the frame is not produced.
func (e *Engine) Step(ctx context.Context, in Input) (Frame, Effects, error) {
	e.mu.Lock()
	fx := e.session.Apply(in)
	if fx.Save {
		if err := e.saveLocked(ctx); err != nil {
			e.mu.Unlock()
			select {
			case e.failed <- err:
			default:
			}
			return Frame{}, fx, err
		}
	}
	if n := e.inv.Scan(e.arr); n > 0 {
		slog.Debug("textures prepared", "count", n)
	}
	f := e.session.Frame(e.lib.Cursor, e.lib.Mask)
	e.mu.Unlock()

	if fx.Quit {
		e.quitOnce.Do(func() { close(e.done) })
	}
	for _, fn := range e.observers {
		fn(f)
	}
	return f, fx, nil
}

// Frame returns the current frame without applying input.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inv.Scan(e.arr)
	return e.session.Frame(e.lib.Cursor, e.lib.Mask)
}

// Save writes the current document.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked(ctx)
}

func (e *Engine) saveLocked(ctx context.Context) error {
	if err := e.saver.Save(ctx, e.arr.Get().Clone()); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	slog.Info("document saved", "stamps", len(e.arr.Get().Stamps))
	return nil
}

// Document returns a copy of the current document.
func (e *Engine) Document() *document.SVG {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arr.Get().Clone()
}

// Texture returns the cached texture for key, including the cursor and
// mask glyphs.
func (e *Engine) Texture(key document.Href) (*image.RGBA, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch key {
	case CursorKey:
		return e.lib.Cursor, true
	case MaskKey:
		return e.lib.Mask, true
	}
	return e.inv.Lookup(key)
}

// Stamps returns the source stamps sorted by name.
func (e *Engine) Stamps() []asset.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.lib.Stamps)
}

// AddStamp makes a new source image available in the palette.
func (e *Engine) AddStamp(img asset.Image) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lib.Insert(img)
	e.inv.AddSource(img)
	e.inv.Layout(e.session.height)
	// Stamps that referenced the name before it existed need a rescan.
	e.arr.Mut()
}
