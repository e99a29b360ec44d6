package scene

import (
	"errors"
	"fmt"

	"canvas/internal/object"

	json "github.com/goccy/go-json"
)

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot: immutable serialized copy of the scene at one point in time.
// Consumers outside this package treat it as opaque.
type Snapshot string

const snapshotVersion = 1

type document struct {
	Version int              `json:"version"`
	Objects []*object.Object `json:"objects"`
}

func encode(objs []*object.Object) (Snapshot, error) {
	if objs == nil {
		objs = []*object.Object{}
	}
	raw, err := json.Marshal(document{Version: snapshotVersion, Objects: objs})
	if err != nil {
		return "", fmt.Errorf("failed to serialize scene: %w", err)
	}
	return Snapshot(raw), nil
}

// decode parses and checks a snapshot completely before anything is applied
func decode(snap Snapshot) ([]*object.Object, error) {
	var doc document
	if err := json.Unmarshal([]byte(snap), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}

	seen := make(map[string]bool, len(doc.Objects))
	for i, obj := range doc.Objects {
		if obj == nil {
			return nil, fmt.Errorf("%w: null object at %d", ErrCorruptSnapshot, i)
		}
		if err := obj.Validate(); err != nil {
			return nil, fmt.Errorf("%w: object %s: %v", ErrCorruptSnapshot, obj.ID, err)
		}
		if obj.ID == "" || seen[obj.ID] {
			return nil, fmt.Errorf("%w: missing or duplicate id at %d", ErrCorruptSnapshot, i)
		}
		seen[obj.ID] = true
	}

	if doc.Objects == nil {
		doc.Objects = []*object.Object{}
	}
	return doc.Objects, nil
}
