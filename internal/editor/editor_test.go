package editor

import (
	"testing"

	"canvas/internal/logger"
	"canvas/internal/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TracksSceneChanges(t *testing.T) {
	e, err := New(Options{}, logger.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.History.CanUndo())

	rect := object.NewShape(object.ShapeRect, 0, 0, 10, 10)
	require.NoError(t, e.Scene.Add(rect))
	assert.True(t, e.History.CanUndo())

	require.NoError(t, e.History.Undo())
	assert.Equal(t, 0, e.Scene.Len())
	assert.True(t, e.History.CanRedo())

	require.NoError(t, e.History.Redo())
	assert.Equal(t, 1, e.Scene.Len())
}

func TestNew_HistoryCapacity(t *testing.T) {
	e, err := New(Options{HistoryCapacity: 3}, nil)
	require.NoError(t, err)
	defer e.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Scene.Add(object.NewShape(object.ShapeRect, float64(i), 0, 10, 10)))
	}
	undo, _ := e.History.Depth()
	assert.Equal(t, 3, undo)
}

func TestClose_StopsRecording(t *testing.T) {
	e, err := New(Options{}, nil)
	require.NoError(t, err)
	e.Close()

	require.NoError(t, e.Scene.Add(object.NewShape(object.ShapeRect, 0, 0, 10, 10)))
	assert.False(t, e.History.CanUndo())
}
