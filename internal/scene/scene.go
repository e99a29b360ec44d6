package scene

import (
	"errors"
	"fmt"
	"sync"

	"canvas/internal/notify"
	"canvas/internal/object"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrDuplicateObject = errors.New("object already on canvas")
)

// Scene: ordered set of objects on the canvas plus the current selection.
// Events are emitted after the lock is released so handlers may read the scene.
type Scene struct {
	objects  []*object.Object // z-order, bottom first
	index    map[string]*object.Object
	selected []*object.Object
	notifier *notify.Notifier
	mu       sync.RWMutex
}

func New(n *notify.Notifier) *Scene {
	return &Scene{
		objects:  []*object.Object{},
		index:    make(map[string]*object.Object),
		notifier: n,
	}
}

// Add: appends objects on top, assigning ids when missing. All or nothing: every object
// must pass the same validation a snapshot restore applies.
func (s *Scene) Add(objs ...*object.Object) error {
	if len(objs) == 0 {
		return nil
	}

	s.mu.Lock()
	seen := make(map[string]bool, len(objs))
	for _, obj := range objs {
		if obj == nil {
			s.mu.Unlock()
			return errors.New("cannot add nil object")
		}
		if err := obj.Validate(); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("invalid object %s: %w", obj.ID, err)
		}
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}
		if _, exists := s.index[obj.ID]; exists || seen[obj.ID] {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateObject, obj.ID)
		}
		seen[obj.ID] = true
	}

	for _, obj := range objs {
		s.objects = append(s.objects, obj)
		s.index[obj.ID] = obj
	}
	s.mu.Unlock()

	s.notifier.Added(objs...)
	return nil
}

// Remove: removes objects by id and drops them from the selection. All or nothing.
func (s *Scene) Remove(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	removed := make([]*object.Object, 0, len(ids))
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		obj, exists := s.index[id]
		if !exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
		}
		if !drop[id] {
			drop[id] = true
			removed = append(removed, obj)
		}
	}

	s.objects = filter(s.objects, drop)
	for id := range drop {
		delete(s.index, id)
	}

	prevSelected := len(s.selected)
	s.selected = filter(s.selected, drop)
	selection := s.selectionLocked()
	s.mu.Unlock()

	s.notifier.Removed(removed...)
	if len(selection) != prevSelected {
		if len(selection) == 0 {
			s.notifier.Selection(notify.SelectionCleared, nil)
		} else {
			s.notifier.Selection(notify.SelectionUpdated, selection)
		}
	}
	return nil
}

// Modify: applies fn to a copy of the object; the result must still be a valid object.
// The copy replaces the stored object, so references handed out earlier never change.
// fn runs under the scene lock and must not call back into the scene.
func (s *Scene) Modify(id string, fn func(*object.Object) error) error {
	s.mu.Lock()
	obj, exists := s.index[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	cp := obj.Copy()
	if err := fn(cp); err != nil {
		s.mu.Unlock()
		return err
	}
	cp.ID = obj.ID
	if err := cp.Validate(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid modification: %w", err)
	}
	s.swapLocked(obj, cp)
	s.mu.Unlock()

	s.notifier.Modified(cp)
	return nil
}

// Replace: overwrites an existing object's contents with obj
func (s *Scene) Replace(obj *object.Object) error {
	if obj == nil {
		return errors.New("cannot replace with nil object")
	}
	return s.Modify(obj.ID, func(o *object.Object) error {
		*o = *obj.Copy()
		return nil
	})
}

// Select: makes ids the current selection (no ids clears it)
func (s *Scene) Select(ids ...string) error {
	s.mu.Lock()
	next := make([]*object.Object, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		obj, exists := s.index[id]
		if !exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
		}
		if !seen[id] {
			seen[id] = true
			next = append(next, obj)
		}
	}

	prev := s.selected
	s.selected = next
	selection := s.selectionLocked()
	s.mu.Unlock()

	switch {
	case len(prev) == 0 && len(next) > 0:
		s.notifier.Selection(notify.SelectionCreated, selection)
	case len(prev) > 0 && len(next) == 0:
		s.notifier.Selection(notify.SelectionCleared, nil)
	case len(prev) > 0 && !sameObjects(prev, next):
		s.notifier.Selection(notify.SelectionUpdated, selection)
	}
	return nil
}

func (s *Scene) ClearSelection() {
	_ = s.Select()
}

// Objects: current objects in z-order (bottom first)
func (s *Scene) Objects() []*object.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*object.Object, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *Scene) Get(id string) (*object.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.index[id]
	return obj, exists
}

func (s *Scene) Selected() []*object.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectionLocked()
}

// SelectedImages: selected image objects, in selection order
func (s *Scene) SelectedImages() []*object.Object {
	var images []*object.Object
	for _, obj := range s.Selected() {
		if obj.IsImage() {
			images = append(images, obj)
		}
	}
	return images
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}

// ObjectCount: used by the object limit check
func (s *Scene) ObjectCount() int {
	return s.Len()
}

// Snapshot: serializes the objects (not the selection)
func (s *Scene) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return encode(s.objects)
}

// Restore: replaces the scene with snap asynchronously. The returned channel receives
// exactly one value once the restore finished (nil) or was rejected. A rejected snapshot
// leaves the scene untouched.
func (s *Scene) Restore(snap Snapshot) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		objs, err := decode(snap)
		if err != nil {
			done <- err
			return
		}

		s.mu.Lock()
		old := s.objects
		hadSelection := len(s.selected) > 0
		s.objects = objs
		s.index = make(map[string]*object.Object, len(objs))
		for _, obj := range objs {
			s.index[obj.ID] = obj
		}
		s.selected = nil
		s.mu.Unlock()

		if hadSelection {
			s.notifier.Selection(notify.SelectionCleared, nil)
		}
		if len(old) > 0 {
			s.notifier.Removed(old...)
		}
		if len(objs) > 0 {
			s.notifier.Added(objs...)
		}
		done <- nil
	}()

	return done
}

func (s *Scene) swapLocked(old, next *object.Object) {
	s.index[next.ID] = next
	for i, obj := range s.objects {
		if obj == old {
			s.objects[i] = next
			break
		}
	}
	// selection slices are shared with callers, never written in place
	for i, obj := range s.selected {
		if obj == old {
			selected := s.selectionLocked()
			selected[i] = next
			s.selected = selected
			break
		}
	}
}

func (s *Scene) selectionLocked() []*object.Object {
	out := make([]*object.Object, len(s.selected))
	copy(out, s.selected)
	return out
}

func filter(objs []*object.Object, drop map[string]bool) []*object.Object {
	kept := objs[:0:0]
	for _, obj := range objs {
		if !drop[obj.ID] {
			kept = append(kept, obj)
		}
	}
	return kept
}

func sameObjects(a, b []*object.Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
