package user

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const goldenRatio = 0.618033988749895

// ColorGenerator: generates distributed colors for user cursors
type ColorGenerator struct {
	counter int
	mu      sync.Mutex
}

func NewColorGenerator() *ColorGenerator {
	return &ColorGenerator{
		counter: 0,
	}
}

// NextColor: returns the next color in the golden ratio distribution sequence
func (cg *ColorGenerator) NextColor() string {
	return colorful.Hsl(cg.nextHue(), 0.85, 0.55).Hex()
}

// NextNoteColor: pastel variant of the same sequence, used for sticky notes without a color
func (cg *ColorGenerator) NextNoteColor() string {
	return colorful.Hsl(cg.nextHue(), 0.9, 0.82).Hex()
}

func (cg *ColorGenerator) nextHue() float64 {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	hue := float64(cg.counter) * goldenRatio
	hue = hue - float64(int(hue)) // Keep fractional part
	cg.counter++
	return hue * 360
}
