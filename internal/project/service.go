package project

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/engine"
	"github.com/inamate/stamps/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrBadInput    = errors.New("bad input")
	ErrUnavailable = errors.New("snapshot history is not configured")
)

// History keeps numbered versions of the document.
type History interface {
	Create(ctx context.Context, svg *document.SVG) (*store.Snapshot, error)
	Get(ctx context.Context, id string) (*store.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.Snapshot, error)
}

// Service exposes the editing session to HTTP clients.
type Service struct {
	engine  *engine.Engine
	history History
}

// NewService wraps e. history may be nil.
func NewService(e *engine.Engine, history History) *Service {
	return &Service{engine: e, history: history}
}

type StepResult struct {
	Frame   engine.Frame          `json:"frame"`
	Effects engine.EffectsMessage `json:"effects"`
}

func (s *Service) Document() *document.SVG {
	return s.engine.Document()
}

func (s *Service) Frame() engine.Frame {
	return s.engine.Frame()
}

// Input applies one remote input step.
func (s *Service) Input(ctx context.Context, msg engine.InputMessage) (*StepResult, error) {
	in, err := msg.Input()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	return s.step(ctx, in)
}

func (s *Service) Undo(ctx context.Context) (*StepResult, error) {
	return s.step(ctx, engine.Input{Held: engine.ActionUndo, Pressed: engine.ActionUndo})
}

// Redo restores the most recently undone stamp.
func (s *Service) Redo(ctx context.Context) (*StepResult, error) {
	return s.step(ctx, engine.Input{Held: engine.ActionUndo, Pressed: engine.ActionUndo, Shift: true})
}

func (s *Service) step(ctx context.Context, in engine.Input) (*StepResult, error) {
	f, fx, err := s.engine.Step(ctx, in)
	if err != nil {
		return nil, err
	}
	return &StepResult{Frame: f, Effects: fx.Message()}, nil
}

// Commit saves the document and, when history is configured, records it
// as a new snapshot.
func (s *Service) Commit(ctx context.Context) (*store.Snapshot, error) {
	if err := s.engine.Save(ctx); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, nil
	}
	snap, err := s.history.Create(ctx, s.engine.Document())
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]store.Snapshot, error) {
	if s.history == nil {
		return nil, ErrUnavailable
	}
	return s.history.List(ctx, limit)
}

func (s *Service) GetSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	if s.history == nil {
		return nil, ErrUnavailable
	}
	snap, err := s.history.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return snap, err
}

func (s *Service) Texture(key document.Href) (image.Image, error) {
	img, ok := s.engine.Texture(key)
	if !ok {
		return nil, ErrNotFound
	}
	return img, nil
}
