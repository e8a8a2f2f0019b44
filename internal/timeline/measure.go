package timeline

import "github.com/mattn/go-runewidth"

// Font describes the label typeface for measurement
type Font struct {
	Size float64
}

// Measurer returns the rendered width of a label in layout units
type Measurer interface {
	Measure(label string, font Font) float64
}

// MeasurerFunc adapts a function to Measurer
type MeasurerFunc func(label string, font Font) float64

func (f MeasurerFunc) Measure(label string, font Font) float64 {
	return f(label, font)
}

// RuneWidthMeasurer approximates proportional text by terminal cell width.
// Wide (CJK) runes count as two cells.
type RuneWidthMeasurer struct {
	// CellWidth is the width of one cell relative to the font size. Zero
	// means 0.6.
	CellWidth float64
}

func (m RuneWidthMeasurer) Measure(label string, font Font) float64 {
	cell := m.CellWidth
	if cell == 0 {
		cell = 0.6
	}
	return float64(runewidth.StringWidth(label)) * font.Size * cell
}
