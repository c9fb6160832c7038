// Package renderer draws the simulator's serialized position buffer.
package renderer

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces successive hues so neighbouring sectors never share a color.
const goldenAngle = 137.50776

// Palette assigns each sector a distinct hue.
type Palette struct {
	colors   []colorful.Color
	overflow colorful.Color
}

// NewPalette builds a palette of n sector colors at the given HSV saturation and value.
func NewPalette(n int, saturation, value float64) *Palette {
	p := &Palette{
		colors:   make([]colorful.Color, n),
		overflow: colorful.Hsv(0, 0, value),
	}
	for i := range p.colors {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		p.colors[i] = colorful.Hsv(hue, saturation, value)
	}
	return p
}

// Len returns the number of sector colors.
func (p *Palette) Len() int { return len(p.colors) }

// SectorColor returns the color of sector i. Out-of-range indices get the
// neutral overflow color.
func (p *Palette) SectorColor(i int) colorful.Color {
	if i < 0 || i >= len(p.colors) {
		return p.overflow
	}
	return p.colors[i]
}

// RGB255 returns sector i's color as 8-bit channels.
func (p *Palette) RGB255(i int) (r, g, b uint8) {
	return p.SectorColor(i).RGB255()
}
