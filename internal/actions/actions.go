package actions

import (
	"context"
	"errors"

	"canvas/internal/generation"
	"canvas/internal/logger"
	"canvas/internal/object"
	"canvas/internal/scene"
)

const (
	DuplicateOffset = 20
	VariationGap    = 20
	MaxOutputs      = 4
	maxDownloads    = 4
)

var ErrNoImageSelected = errors.New("no image selected")

// Generator: the external image-variation service
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Response, error)
}

// Fetcher downloads remote images
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Batcher groups scene mutations into a single history entry
type Batcher interface {
	Batch(fn func() error) error
}

// Actions: user-facing operations composed from scene primitives
type Actions struct {
	scene   *scene.Scene
	history Batcher
	gen     Generator
	fetch   Fetcher
	log     logger.ILogger
	raster  RasterOptions
}

type Option func(*Actions)

func WithRaster(opts RasterOptions) Option {
	return func(a *Actions) {
		a.raster = opts
	}
}

func New(s *scene.Scene, h Batcher, gen Generator, fetch Fetcher, log logger.ILogger, opts ...Option) *Actions {
	if log == nil {
		log = logger.NewNop()
	}
	a := &Actions{
		scene:   s,
		history: h,
		gen:     gen,
		fetch:   fetch,
		log:     log,
		raster:  DefaultRasterOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Duplicate: clones the selection offset by (20,20) and selects the clones.
// Nothing selected is a no-op.
func (a *Actions) Duplicate() ([]*object.Object, error) {
	selected := a.scene.Selected()
	if len(selected) == 0 {
		return nil, nil
	}

	clones := make([]*object.Object, 0, len(selected))
	ids := make([]string, 0, len(selected))
	for _, obj := range selected {
		clone := obj.Clone()
		clone.Offset(DuplicateOffset, DuplicateOffset)
		clones = append(clones, clone)
		ids = append(ids, clone.ID)
	}

	err := a.history.Batch(func() error {
		if err := a.scene.Add(clones...); err != nil {
			return err
		}
		return a.scene.Select(ids...)
	})
	if err != nil {
		return nil, err
	}

	a.log.Debug("Actions", "Duplicated selection", map[string]interface{}{"count": len(clones)})
	return clones, nil
}
