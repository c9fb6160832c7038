package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawFillBar draws count out of limit as a horizontal bar with a colored
// swatch for the label. The fill turns amber past 75% and red when full.
func (r *Renderer) DrawFillBar(x, y int32, label string, swatch rl.Color, count, limit int, width int32) int32 {
	chip := r.Theme.SwatchSize
	rl.DrawRectangle(x, y+2, chip, chip, swatch)
	rl.DrawText(label, x+chip+4, y, r.Theme.FontSize, r.Theme.LabelColor)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - r.Theme.CountWidth
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	ratio := fillRatio(count, limit)
	rl.DrawRectangle(barX, y+2, fillWidth(barWidth, ratio), r.Theme.BarHeight, r.fillColor(ratio))

	rl.DrawText(fmt.Sprintf("%d/%d", count, limit), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

func (r *Renderer) fillColor(ratio float32) rl.Color {
	switch {
	case ratio >= 1:
		return r.Theme.BarFull
	case ratio > 0.75:
		return r.Theme.BarWarn
	default:
		return r.Theme.BarOK
	}
}

// fillRatio returns count/limit clamped to [0, 1].
func fillRatio(count, limit int) float32 {
	if limit <= 0 || count <= 0 {
		return 0
	}
	if count >= limit {
		return 1
	}
	return float32(count) / float32(limit)
}

// fillWidth scales a bar width by ratio, clamped to [0, width].
func fillWidth(width int32, ratio float32) int32 {
	if ratio <= 0 {
		return 0
	}
	if ratio >= 1 {
		return width
	}
	return int32(float32(width) * ratio)
}
