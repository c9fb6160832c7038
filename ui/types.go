// Package ui draws the raylib heads-up display and control panel for the
// simulator window.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds panel colors and metrics in pixels.
type Theme struct {
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color

	// Occupancy bar track and its fill colors by level
	BarBg   rl.Color
	BarOK   rl.Color
	BarWarn rl.Color
	BarFull rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	SwatchSize     int32 // sector color chip beside each bar label
	CountWidth     int32 // room right of a bar for "count/limit"
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the dark theme used by every panel.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 16, G: 19, B: 24, A: 235},
		PanelBorder:    rl.Color{R: 58, G: 66, B: 78, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 38, G: 42, B: 48, A: 255},
		BarOK:          rl.Color{R: 90, G: 160, B: 210, A: 255},
		BarWarn:        rl.Color{R: 215, G: 175, B: 80, A: 255},
		BarFull:        rl.Color{R: 210, G: 85, B: 85, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     60,
		BarHeight:      10,
		SwatchSize:     8,
		CountWidth:     50,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
