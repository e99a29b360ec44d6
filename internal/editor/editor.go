package editor

import (
	"fmt"

	"canvas/internal/actions"
	"canvas/internal/history"
	"canvas/internal/logger"
	"canvas/internal/notify"
	"canvas/internal/scene"
)

// Editor: one canvas document with its history and actions
type Editor struct {
	Notifier *notify.Notifier
	Scene    *scene.Scene
	History  *history.Manager
	Actions  *actions.Actions

	detach func()
}

type Options struct {
	HistoryCapacity int
	Raster          actions.RasterOptions
	Generator       actions.Generator
	Fetcher         actions.Fetcher
}

// New wires the history to the scene's notifier and records the empty scene as the floor state
func New(opts Options, log logger.ILogger) (*Editor, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Raster.Width == 0 || opts.Raster.Height == 0 {
		opts.Raster = actions.DefaultRasterOptions()
	}

	n := notify.NewNotifier()
	s := scene.New(n)
	h := history.New(s, log, history.WithCapacity(opts.HistoryCapacity))

	e := &Editor{
		Notifier: n,
		Scene:    s,
		History:  h,
		Actions:  actions.New(s, h, opts.Generator, opts.Fetcher, log, actions.WithRaster(opts.Raster)),
	}
	e.detach = h.Attach(n)

	if err := h.Init(); err != nil {
		e.detach()
		return nil, fmt.Errorf("init history: %w", err)
	}
	return e, nil
}

// Close stops history tracking
func (e *Editor) Close() {
	if e.detach != nil {
		e.detach()
	}
}
