package notify

import (
	"testing"

	"canvas/internal/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversInOrder(t *testing.T) {
	n := NewNotifier()

	var got []string
	n.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Type)) })
	n.Subscribe(func(e Event) { got = append(got, "second:"+string(e.Type)) })

	n.Added(object.NewShape(object.ShapeRect, 0, 0, 1, 1))

	assert.Equal(t, []string{"first:object:added", "second:object:added"}, got)
}

func TestNotifier_CarriesReferences(t *testing.T) {
	n := NewNotifier()
	obj := object.NewNote("a", "", 0, 0)

	var seen *object.Object
	n.Subscribe(func(e Event) { seen = e.Objects[0] })
	n.Modified(obj)

	assert.Same(t, obj, seen)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()

	calls := 0
	unsubscribe := n.Subscribe(func(Event) { calls++ })

	n.Removed()
	unsubscribe()
	n.Removed()

	assert.Equal(t, 1, calls)
}

func TestNotifier_SelectionComputesImages(t *testing.T) {
	n := NewNotifier()

	img := object.NewImage("https://cdn.example.com/a.png", 0, 0, 10, 10)
	rect := object.NewShape(object.ShapeRect, 0, 0, 10, 10)

	var events []Event
	n.Subscribe(func(e Event) { events = append(events, e) })

	n.Selection(SelectionCreated, []*object.Object{img, rect})
	n.Selection(SelectionCleared, nil)

	require.Len(t, events, 2)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, events[0].SelectedImages)
	assert.Equal(t, []*object.Object{img, rect}, events[0].Objects)
	assert.Empty(t, events[1].SelectedImages)
	assert.Equal(t, SelectionCleared, events[1].Type)
	assert.False(t, events[1].OccurredAt.IsZero())
}

func TestNotifier_HandlerMaySubscribeDuringEmit(t *testing.T) {
	n := NewNotifier()

	nested := 0
	n.Subscribe(func(Event) {
		n.Subscribe(func(Event) { nested++ })
	})

	n.Added()
	assert.Equal(t, 0, nested)
	n.Added()
	assert.Equal(t, 1, nested)
}
