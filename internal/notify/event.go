package notify

import (
	"time"

	"canvas/internal/object"
)

// EventType identifies a scene mutation
type EventType string

const (
	ObjectAdded      EventType = "object:added"
	ObjectModified   EventType = "object:modified"
	ObjectRemoved    EventType = "object:removed"
	SelectionCreated EventType = "selection:created"
	SelectionUpdated EventType = "selection:updated"
	SelectionCleared EventType = "selection:cleared"
)

// Event carries references to the affected objects, not copies.
// For selection events Objects is the new selection and SelectedImages its image sources.
type Event struct {
	Type           EventType
	Objects        []*object.Object
	SelectedImages []string
	OccurredAt     time.Time
}

func imageURLs(objs []*object.Object) []string {
	urls := make([]string, 0, len(objs))
	for _, obj := range objs {
		if obj.IsImage() {
			urls = append(urls, obj.ImageURL())
		}
	}
	return urls
}
