package notify

import (
	"sync"
	"time"

	"canvas/internal/object"
)

// Handler receives every event emitted after it subscribed
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Notifier: turns scene mutations into a uniform event stream
type Notifier struct {
	subs   []subscription
	nextID int
	now    func() time.Time
	mu     sync.RWMutex
}

func NewNotifier() *Notifier {
	return &Notifier{now: time.Now}
}

// Subscribe registers h and returns a function that removes it
func (n *Notifier) Subscribe(h Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, handler: h})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers evt to subscribers synchronously, in subscription order
func (n *Notifier) Emit(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = n.now()
	}

	// snapshot so handlers may (un)subscribe while being called
	n.mu.RLock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		s.handler(evt)
	}
}

func (n *Notifier) Added(objs ...*object.Object) {
	n.Emit(Event{Type: ObjectAdded, Objects: objs})
}

func (n *Notifier) Modified(objs ...*object.Object) {
	n.Emit(Event{Type: ObjectModified, Objects: objs})
}

func (n *Notifier) Removed(objs ...*object.Object) {
	n.Emit(Event{Type: ObjectRemoved, Objects: objs})
}

// Selection emits the selection event of the given type along with the selected images
func (n *Notifier) Selection(t EventType, selected []*object.Object) {
	n.Emit(Event{Type: t, Objects: selected, SelectedImages: imageURLs(selected)})
}
