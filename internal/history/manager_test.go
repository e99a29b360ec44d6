package history

import (
	"errors"
	"sync"
	"testing"
	"time"

	"canvas/internal/logger"
	"canvas/internal/notify"
	"canvas/internal/object"
	"canvas/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	scene   *scene.Scene
	history *Manager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	n := notify.NewNotifier()
	s := scene.New(n)
	m := New(s, logger.NewNop(), opts...)
	m.Attach(n)
	require.NoError(t, m.Init())
	return &fixture{scene: s, history: m}
}

func (f *fixture) add(t *testing.T, obj *object.Object) *object.Object {
	t.Helper()
	require.NoError(t, f.scene.Add(obj))
	return obj
}

func (f *fixture) snap(t *testing.T) scene.Snapshot {
	t.Helper()
	s, err := f.scene.Snapshot()
	require.NoError(t, err)
	return s
}

func (f *fixture) ids() []string {
	var ids []string
	for _, obj := range f.scene.Objects() {
		ids = append(ids, obj.ID)
	}
	return ids
}

func rectAt(x float64) *object.Object {
	return object.NewShape(object.ShapeRect, x, 0, 10, 10)
}

// =============================================================================
// Initial state
// =============================================================================

func TestManager_FreshHistoryCannotUndoOrRedo(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.history.CanUndo())
	assert.False(t, f.history.CanRedo())
	undo, redo := f.history.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 0, redo)
}

// =============================================================================
// Scenarios
// =============================================================================

func TestManager_UndoDownToFloor(t *testing.T) {
	f := newFixture(t)

	a := f.add(t, rectAt(0))
	undo, _ := f.history.Depth()
	assert.Equal(t, 2, undo)

	f.add(t, rectAt(10))
	undo, _ = f.history.Depth()
	assert.Equal(t, 3, undo)

	require.NoError(t, f.history.Undo())
	assert.Equal(t, []string{a.ID}, f.ids())

	require.NoError(t, f.history.Undo())
	assert.Empty(t, f.ids())

	// floor reached: silent no-op
	require.NoError(t, f.history.Undo())
	assert.Empty(t, f.ids())
	undo, redo := f.history.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 2, redo)
	assert.False(t, f.history.CanUndo())
}

func TestManager_NewMutationDiscardsRedo(t *testing.T) {
	f := newFixture(t)

	f.add(t, rectAt(0))
	b := f.add(t, rectAt(10))
	require.NoError(t, f.history.Undo())
	assert.True(t, f.history.CanRedo())

	f.add(t, rectAt(20))
	assert.False(t, f.history.CanRedo())

	// B is gone for good
	require.NoError(t, f.history.Redo())
	_, found := f.scene.Get(b.ID)
	assert.False(t, found)
}

func TestManager_RedoRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.add(t, rectAt(0))
	f.add(t, rectAt(10))
	before := f.snap(t)

	require.NoError(t, f.history.Undo())
	assert.NotEqual(t, before, f.snap(t))

	require.NoError(t, f.history.Redo())
	assert.Equal(t, before, f.snap(t))
	assert.True(t, f.history.CanUndo())
	assert.False(t, f.history.CanRedo())
}

func TestManager_RedoWithoutUndoIsNoop(t *testing.T) {
	f := newFixture(t)
	f.add(t, rectAt(0))
	before := f.snap(t)

	require.NoError(t, f.history.Redo())
	assert.Equal(t, before, f.snap(t))
}

// =============================================================================
// Properties
// =============================================================================

func TestManager_UndoingKMutationsRestoresPrefixState(t *testing.T) {
	const n = 8
	f := newFixture(t)

	states := []scene.Snapshot{f.snap(t)}
	var objs []*object.Object
	for i := 0; i < n; i++ {
		switch {
		case i%3 == 2 && len(objs) > 0:
			require.NoError(t, f.scene.Remove(objs[0].ID))
			objs = objs[1:]
		case i%3 == 1 && len(objs) > 0:
			target := objs[len(objs)-1].ID
			require.NoError(t, f.scene.Modify(target, func(o *object.Object) error {
				o.Geometry.Top += 5
				return nil
			}))
		default:
			objs = append(objs, f.add(t, rectAt(float64(i))))
		}
		states = append(states, f.snap(t))
	}

	for k := 1; k <= n; k++ {
		require.NoError(t, f.history.Undo())
		assert.Equal(t, states[n-k], f.snap(t), "after %d undos", k)
	}
}

func TestManager_ConcurrentEditorsStayUndoable(t *testing.T) {
	f := newFixture(t, WithCapacity(1000))

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj := rectAt(float64(w * 100))
			if !assert.NoError(t, f.scene.Add(obj)) {
				return
			}
			for i := 0; i < 20; i++ {
				next := obj.Copy()
				next.Geometry.Top = float64(i)
				assert.NoError(t, f.scene.Replace(next))
				for _, o := range f.scene.Objects() {
					_, err := o.ToMap()
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()
	assert.Len(t, f.ids(), 2)

	for f.history.CanUndo() {
		require.NoError(t, f.history.Undo())
	}
	assert.Empty(t, f.ids())
}

func TestManager_CapacityEvictsOldest(t *testing.T) {
	f := newFixture(t)

	var states []scene.Snapshot
	for i := 0; i < 60; i++ {
		f.add(t, rectAt(float64(i)))
		states = append(states, f.snap(t))
	}

	undo, _ := f.history.Depth()
	assert.Equal(t, DefaultCapacity, undo)

	for f.history.CanUndo() {
		require.NoError(t, f.history.Undo())
	}
	// floor is the state after mutation 11; the initial state and the first 10 are gone
	assert.Equal(t, states[10], f.snap(t))
	assert.Len(t, f.scene.Objects(), 11)
}

func TestManager_WithCapacity(t *testing.T) {
	f := newFixture(t, WithCapacity(3), WithCapacity(0))

	for i := 0; i < 5; i++ {
		f.add(t, rectAt(float64(i)))
	}
	undo, _ := f.history.Depth()
	assert.Equal(t, 3, undo)
}

func TestManager_SelectionCreatedRecords(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, rectAt(0))
	b := f.add(t, rectAt(1))

	require.NoError(t, f.scene.Select(a.ID))
	undo, _ := f.history.Depth()
	assert.Equal(t, 4, undo)

	// updates and clears do not
	require.NoError(t, f.scene.Select(a.ID, b.ID))
	f.scene.ClearSelection()
	undo, _ = f.history.Depth()
	assert.Equal(t, 4, undo)
}

// =============================================================================
// Re-entrancy guard
// =============================================================================

func TestManager_RestoreDoesNotRecord(t *testing.T) {
	f := newFixture(t)
	f.add(t, rectAt(0))
	f.add(t, rectAt(1))
	f.add(t, rectAt(2))

	require.NoError(t, f.history.Undo())
	require.NoError(t, f.history.Undo())

	undo, redo := f.history.Depth()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 2, redo)
	assert.False(t, f.history.restoring.Load())
}

// gatedSource completes restores only when released
type gatedSource struct {
	snap    scene.Snapshot
	started chan struct{}
	release chan error
	snaps   int
}

func (g *gatedSource) Snapshot() (scene.Snapshot, error) {
	g.snaps++
	return g.snap, nil
}

func (g *gatedSource) Restore(scene.Snapshot) <-chan error {
	done := make(chan error, 1)
	go func() {
		g.started <- struct{}{}
		done <- <-g.release
	}()
	return done
}

func TestManager_GuardHeldUntilRestoreCompletes(t *testing.T) {
	src := &gatedSource{snap: "s", started: make(chan struct{}), release: make(chan error)}
	m := New(src, nil)
	require.NoError(t, m.Init())
	m.Record()

	finished := make(chan error)
	go func() { finished <- m.Undo() }()

	<-src.started
	assert.True(t, m.restoring.Load())

	// artifacts of the restore are ignored
	snapsBefore := src.snaps
	m.Record()
	assert.Equal(t, snapsBefore, src.snaps)

	src.release <- nil
	require.NoError(t, <-finished)
	assert.False(t, m.restoring.Load())

	undo, redo := m.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 1, redo)
}

func TestManager_SecondUndoWaitsForFirst(t *testing.T) {
	src := &gatedSource{snap: "s", started: make(chan struct{}), release: make(chan error)}
	m := New(src, nil)
	require.NoError(t, m.Init())
	m.Record()
	m.Record()

	first := make(chan error)
	second := make(chan error)
	go func() { first <- m.Undo() }()
	<-src.started
	go func() { second <- m.Undo() }()

	select {
	case <-src.started:
		t.Fatal("second restore started before the first completed")
	case <-time.After(50 * time.Millisecond):
	}

	src.release <- nil
	require.NoError(t, <-first)
	<-src.started
	src.release <- nil
	require.NoError(t, <-second)

	undo, redo := m.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 2, redo)
}

func TestManager_FailedRestoreRollsBack(t *testing.T) {
	src := &gatedSource{snap: "s", started: make(chan struct{}, 1), release: make(chan error, 1)}
	m := New(src, nil)
	require.NoError(t, m.Init())
	m.Record()

	src.release <- errors.New("bad json")
	err := m.Undo()
	<-src.started
	require.ErrorIs(t, err, ErrRestoreFailed)

	assert.False(t, m.restoring.Load())
	undo, redo := m.Depth()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)

	// redo failure rolls back as well
	src.release <- nil
	require.NoError(t, m.Undo())
	<-src.started
	src.release <- errors.New("bad json")
	require.ErrorIs(t, m.Redo(), ErrRestoreFailed)
	<-src.started
	undo, redo = m.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 1, redo)
}

func TestManager_CorruptSnapshotLeavesSceneIntact(t *testing.T) {
	n := notify.NewNotifier()
	s := scene.New(n)
	src := &corruptingSource{Scene: s}
	m := New(src, nil)
	m.Attach(n)
	require.NoError(t, m.Init())

	require.NoError(t, s.Add(rectAt(0)))
	before, err := s.Snapshot()
	require.NoError(t, err)

	src.corrupt = true
	require.ErrorIs(t, m.Undo(), ErrRestoreFailed)

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, m.CanUndo())
}

type corruptingSource struct {
	*scene.Scene
	corrupt bool
}

func (c *corruptingSource) Restore(snap scene.Snapshot) <-chan error {
	if c.corrupt {
		snap = snap[:len(snap)/2]
	}
	return c.Scene.Restore(snap)
}

// =============================================================================
// Batch
// =============================================================================

func TestManager_BatchCoalesces(t *testing.T) {
	f := newFixture(t)

	err := f.history.Batch(func() error {
		f.add(t, rectAt(0))
		f.add(t, rectAt(1))
		return f.history.Batch(func() error {
			f.add(t, rectAt(2))
			return nil
		})
	})
	require.NoError(t, err)

	undo, _ := f.history.Depth()
	assert.Equal(t, 2, undo)

	require.NoError(t, f.history.Undo())
	assert.Empty(t, f.ids())
}

func TestManager_BatchWithoutChangesRecordsNothing(t *testing.T) {
	f := newFixture(t)

	wantErr := errors.New("nothing to do")
	err := f.history.Batch(func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	undo, _ := f.history.Depth()
	assert.Equal(t, 1, undo)
}
