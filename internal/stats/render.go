package stats

import "github.com/alkime/lectio/internal/catalog"

// BoxPlotOptions controls box plot geometry.
type BoxPlotOptions struct {
	// Padding is the empty margin on the left and right edges.
	Padding float64
	// BoxHalfHeight is half the height of the q1..q3 box.
	BoxHalfHeight float64
	LineWidth     float64
}

// DefaultBoxPlotOptions returns the standard box plot geometry.
func DefaultBoxPlotOptions() BoxPlotOptions {
	return BoxPlotOptions{Padding: 20, BoxHalfHeight: 15, LineWidth: 2}
}

// HistogramOptions controls histogram geometry.
type HistogramOptions struct {
	// Gap is the empty space on each side of a bar.
	Gap float64
	// Headroom is kept free above the tallest bar.
	Headroom float64
}

// DefaultHistogramOptions returns the standard histogram geometry.
func DefaultHistogramOptions() HistogramOptions {
	return HistogramOptions{Gap: 2, Headroom: 20}
}

// RenderBoxPlot clears c and draws a horizontal box plot of s. Nil or empty
// stats leave the surface clear.
func RenderBoxPlot(c Canvas, s *catalog.SummaryStats, opts BoxPlotOptions) {
	c.Clear()

	if s == nil || s.Count == 0 {
		return
	}

	w, h := c.Size()

	span := s.Max - s.Min
	if span == 0 {
		span = 1
	}

	scale := func(v float64) float64 {
		return opts.Padding + (v-s.Min)/span*(w-2*opts.Padding)
	}

	midY := h / 2
	top := midY - opts.BoxHalfHeight
	bottom := midY + opts.BoxHalfHeight
	left, right := scale(s.Q1), scale(s.Q3)

	c.Line(scale(s.Min), midY, scale(s.Max), midY, StrokeColor, opts.LineWidth)
	c.FillRect(left, top, right-left, bottom-top, BoxColor)
	c.StrokeRect(left, top, right-left, bottom-top, StrokeColor, opts.LineWidth)

	medX := scale(s.Median)
	c.Line(medX, top, medX, bottom, StrokeColor, opts.LineWidth)
}

// RenderHistogram clears c and draws one bar per bucket, heights proportional
// to the bucket counts. An empty bucket list leaves the surface clear.
func RenderHistogram(c Canvas, buckets []catalog.HistogramBucket, opts HistogramOptions) {
	c.Clear()

	if len(buckets) == 0 {
		return
	}

	w, h := c.Size()

	maxCount := 0
	for _, b := range buckets {
		maxCount = max(maxCount, b.Count)
	}

	barW := w / float64(len(buckets))

	for i, b := range buckets {
		barH := 0.0
		if maxCount > 0 {
			barH = float64(b.Count) / float64(maxCount) * (h - opts.Headroom)
		}

		c.FillRect(float64(i)*barW+opts.Gap, h-barH, barW-2*opts.Gap, barH, BarColor)
	}
}

// Render draws both plots of s.
func Render(box, hist Canvas, s *catalog.SummaryStats) {
	RenderBoxPlot(box, s, DefaultBoxPlotOptions())

	var buckets []catalog.HistogramBucket
	if s != nil {
		buckets = s.Histogram
	}

	RenderHistogram(hist, buckets, DefaultHistogramOptions())
}
