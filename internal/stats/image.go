package stats

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
)

// ImageCanvas rasterizes onto an RGBA image.
type ImageCanvas struct {
	img *image.RGBA
}

// NewImageCanvas creates a white canvas of the given pixel size.
func NewImageCanvas(width, height int) *ImageCanvas {
	c := &ImageCanvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	c.Clear()

	return c
}

func (c *ImageCanvas) Size() (float64, float64) {
	b := c.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (c *ImageCanvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

func (c *ImageCanvas) FillRect(x, y, w, h float64, fill color.Color) {
	r := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	).Intersect(c.img.Bounds())

	if r.Empty() {
		return
	}

	draw.Draw(c.img, r, image.NewUniform(fill), image.Point{}, draw.Src)
}

func (c *ImageCanvas) StrokeRect(x, y, w, h float64, stroke color.Color, lineWidth float64) {
	c.Line(x, y, x+w, y, stroke, lineWidth)
	c.Line(x+w, y, x+w, y+h, stroke, lineWidth)
	c.Line(x+w, y+h, x, y+h, stroke, lineWidth)
	c.Line(x, y+h, x, y, stroke, lineWidth)
}

// Line draws a segment by stamping a square of lineWidth along it.
func (c *ImageCanvas) Line(x0, y0, x1, y1 float64, stroke color.Color, lineWidth float64) {
	half := math.Max(lineWidth, 1) / 2
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0)))

	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}

		px := x0 + (x1-x0)*t
		py := y0 + (y1-y0)*t
		c.FillRect(px-half, py-half, 2*half, 2*half, stroke)
	}
}

// Image returns the underlying image.
func (c *ImageCanvas) Image() *image.RGBA {
	return c.img
}

// WritePNG encodes the canvas as PNG.
func (c *ImageCanvas) WritePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	return nil
}
