// Package stats renders words-per-minute summary statistics as a box plot
// and a histogram onto a 2D drawing surface, and computes those statistics.
package stats

import (
	"fmt"
	"image/color"
)

// Canvas is a 2D drawing surface addressed in pixels with the origin at the
// top left.
type Canvas interface {
	Size() (width, height float64)
	Clear()
	Line(x0, y0, x1, y1 float64, stroke color.Color, lineWidth float64)
	FillRect(x, y, w, h float64, fill color.Color)
	StrokeRect(x, y, w, h float64, stroke color.Color, lineWidth float64)
}

//nolint:gochecknoglobals // palette
var (
	StrokeColor = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	BoxColor    = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	BarColor    = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	Background  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Hex formats a color as #rrggbb.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
