package history

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"canvas/internal/logger"
	"canvas/internal/notify"
	"canvas/internal/scene"
)

const DefaultCapacity = 50

var ErrRestoreFailed = errors.New("history restore failed")

// Source: the scene being tracked. Snapshots are opaque to the manager.
type Source interface {
	Snapshot() (scene.Snapshot, error)
	Restore(scene.Snapshot) <-chan error
}

// Manager keeps bounded undo/redo stacks of scene snapshots.
// The top of the undo stack is always the current state; its bottom is the floor state,
// which undo never pops.
type Manager struct {
	src      Source
	log      logger.ILogger
	capacity int

	undo []scene.Snapshot
	redo []scene.Snapshot

	batchDepth int
	batchDirty bool

	// set for the whole restore, until the scene acknowledges completion
	restoring atomic.Bool

	mu   sync.Mutex // stacks and batch state
	opMu sync.Mutex // serializes undo/redo
}

type Option func(*Manager)

// WithCapacity: maximum undo stack length (values < 1 are ignored)
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.capacity = n
		}
	}
}

func New(src Source, log logger.ILogger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Manager{
		src:      src,
		log:      log,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init: resets both stacks to the current scene as the floor state
func (m *Manager) Init() error {
	snap, err := m.src.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo = []scene.Snapshot{snap}
	m.redo = nil
	m.batchDepth = 0
	m.batchDirty = false
	return nil
}

// Attach: records a snapshot on add/modify/remove and on selection creation
func (m *Manager) Attach(n *notify.Notifier) func() {
	return n.Subscribe(func(e notify.Event) {
		switch e.Type {
		case notify.ObjectAdded, notify.ObjectModified, notify.ObjectRemoved, notify.SelectionCreated:
			m.Record()
		}
	})
}

// Record: pushes the current scene and discards the redo stack.
// No-op while a restore is in flight; deferred to the end of a Batch.
func (m *Manager) Record() {
	if m.restoring.Load() {
		return
	}

	m.mu.Lock()
	if m.batchDepth > 0 {
		m.batchDirty = true
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.record()
}

func (m *Manager) record() {
	snap, err := m.src.Snapshot()
	if err != nil {
		m.log.Error("History", "Failed to snapshot scene", map[string]interface{}{"error": err})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo = append(m.undo, snap)
	m.redo = nil
	if over := len(m.undo) - m.capacity; over > 0 {
		// evict oldest; the next entry becomes the floor
		m.undo = append([]scene.Snapshot(nil), m.undo[over:]...)
	}
}

// Batch: every record request made while fn runs collapses into one entry
func (m *Manager) Batch(fn func() error) error {
	m.mu.Lock()
	m.batchDepth++
	m.mu.Unlock()

	err := fn()

	m.mu.Lock()
	m.batchDepth--
	flush := m.batchDepth == 0 && m.batchDirty
	if m.batchDepth == 0 {
		m.batchDirty = false
	}
	m.mu.Unlock()

	if flush && !m.restoring.Load() {
		m.record()
	}
	return err
}

// Undo: restores the previous state. Without one it is a silent no-op.
func (m *Manager) Undo() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if len(m.undo) <= 1 {
		m.mu.Unlock()
		return nil
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)
	target := m.undo[len(m.undo)-1]
	m.mu.Unlock()

	if err := m.restore(target); err != nil {
		m.mu.Lock()
		m.redo = m.redo[:len(m.redo)-1]
		m.undo = append(m.undo, top)
		m.mu.Unlock()

		m.log.Error("History", "Undo failed", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

// Redo: re-applies the most recently undone state. Without one it is a silent no-op.
func (m *Manager) Redo() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if len(m.redo) == 0 {
		m.mu.Unlock()
		return nil
	}
	target := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, target)
	m.mu.Unlock()

	if err := m.restore(target); err != nil {
		m.mu.Lock()
		m.undo = m.undo[:len(m.undo)-1]
		m.redo = append(m.redo, target)
		m.mu.Unlock()

		m.log.Error("History", "Redo failed", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

// restore holds the guard until the scene reports the restore complete
func (m *Manager) restore(snap scene.Snapshot) error {
	m.restoring.Store(true)
	defer m.restoring.Store(false)

	if err := <-m.src.Restore(snap); err != nil {
		return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}
	return nil
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.undo) > 1
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.redo) > 0
}

// Depth: undo and redo stack lengths
func (m *Manager) Depth() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.undo), len(m.redo)
}

