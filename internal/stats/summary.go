package stats

import (
	"math"
	"slices"

	"github.com/alkime/lectio/internal/catalog"
)

// Summarize computes summary statistics and an equal-width histogram of
// values. Quartiles are linearly interpolated; Std is the population
// standard deviation.
func Summarize(values []float64, buckets int) catalog.SummaryStats {
	if len(values) == 0 {
		return catalog.SummaryStats{Histogram: []catalog.HistogramBucket{}} //nolint:exhaustruct // empty distribution
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := float64(len(sorted))

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}

	return catalog.SummaryStats{
		Count:     len(sorted),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		Mean:      mean,
		Median:    quantile(sorted, 0.5),
		Std:       math.Sqrt(variance / n),
		Q1:        quantile(sorted, 0.25),
		Q3:        quantile(sorted, 0.75),
		Histogram: histogram(sorted, buckets),
	}
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func histogram(sorted []float64, buckets int) []catalog.HistogramBucket {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if buckets < 1 || lo == hi {
		return []catalog.HistogramBucket{{LowerBound: lo, Count: len(sorted)}}
	}

	width := (hi - lo) / float64(buckets)
	out := make([]catalog.HistogramBucket, buckets)

	for i := range out {
		out[i].LowerBound = lo + float64(i)*width
	}

	for _, v := range sorted {
		i := min(int((v-lo)/width), buckets-1)
		out[i].Count++
	}

	return out
}
