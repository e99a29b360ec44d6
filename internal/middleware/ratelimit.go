package middleware

import (
	"fmt"

	"canvas/internal/config"
)

// ObjectCounter interface for counting objects (avoids import cycle with room)
type ObjectCounter interface {
	ObjectCount() int
}

// RateLimit: per-room and per-message limits
type RateLimit struct {
	MaxRoomSize       int
	MaxObjects        int
	MaxMessageSize    int
	MaxRooms          int
	MaxObjectDepth    int
	MaxObjectElements int
	MessagesPerSecond float64
	BurstSize         int
}

// NewRateLimit: limits taken from the environment configuration
func NewRateLimit(cfg config.LimitsConfig) *RateLimit {
	return &RateLimit{
		MaxRoomSize:       cfg.MaxRoomSize,
		MaxObjects:        cfg.MaxObjects,
		MaxMessageSize:    cfg.MaxMessageSize,
		MaxRooms:          cfg.MaxRooms,
		MaxObjectDepth:    cfg.MaxObjectDepth,
		MaxObjectElements: cfg.MaxObjectElements,
		MessagesPerSecond: cfg.MessagesPerSecond,
		BurstSize:         cfg.BurstSize,
	}
}

// CanAddObjects: checks if a room has space for n more objects
func (rl *RateLimit) CanAddObjects(counter ObjectCounter, n int) bool {
	return counter.ObjectCount()+n <= rl.MaxObjects
}

// ValidateMessageSize: checks if a message is within the size limit
func (rl *RateLimit) ValidateMessageSize(msgSize int) bool {
	return msgSize <= rl.MaxMessageSize
}

// ValidateObjectComplexity: validates object data complexity
// Checks nesting depth and unique key count (not array lengths)
func (rl *RateLimit) ValidateObjectComplexity(data map[string]interface{}) error {
	depth, keys := validateComplexity(data, 0)

	if depth > rl.MaxObjectDepth {
		return fmt.Errorf("object nesting too deep: %d levels (max %d)", depth, rl.MaxObjectDepth)
	}

	if keys > rl.MaxObjectElements {
		return fmt.Errorf("object too complex: %d keys (max %d)", keys, rl.MaxObjectElements)
	}

	return nil
}

// validateComplexity: recursively checks depth and counts keys
func validateComplexity(data interface{}, currentDepth int) (int, int) {
	maxDepth := currentDepth
	keyCount := 0

	var children []interface{}
	switch v := data.(type) {
	case map[string]interface{}:
		keyCount = len(v)
		for _, val := range v {
			children = append(children, val)
		}
	case []interface{}:
		children = v
	}

	for _, val := range children {
		subDepth, subKeys := validateComplexity(val, currentDepth+1)
		maxDepth = max(maxDepth, subDepth)
		keyCount += subKeys
	}

	return maxDepth, keyCount
}
