package screen

import (
	"math"

	"LureScan/internal/domain/models"
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stddev returns the population standard deviation of xs.
func Stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// MeanLast returns the mean of the last n elements of xs (all of xs when
// shorter).
func MeanLast(xs []float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	if len(xs) > n {
		xs = xs[len(xs)-n:]
	}
	return Mean(xs)
}

// MeanPrior returns the mean of the n elements immediately preceding the last
// n elements. Returns 0 when the slice is too short.
func MeanPrior(xs []float64, n int) float64 {
	if n <= 0 || len(xs) < 2*n {
		return 0
	}
	return Mean(xs[len(xs)-2*n : len(xs)-n])
}

// MeanFirst returns the mean of the first n elements of xs.
func MeanFirst(xs []float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	if len(xs) > n {
		xs = xs[:n]
	}
	return Mean(xs)
}

// PriceChange computes (last close - first close) / first close over the
// window, or 0 when undefined.
func PriceChange(w models.BarWindow) float64 {
	if w.Len() < 2 {
		return 0
	}
	first := w[0].Close
	if first <= 0 {
		return 0
	}
	return (w.Last().Close - first) / first
}

// MeanAmplitude computes mean((high-low)/close) over the window.
func MeanAmplitude(w models.BarWindow) float64 {
	if w.Len() == 0 {
		return 0
	}
	sum := 0.0
	n := 0
	for _, b := range w {
		if b.Close <= 0 {
			continue
		}
		sum += (b.High - b.Low) / b.Close
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// VolumeRatio computes mean(last recent bars' volume) / mean(all earlier
// bars' volume), the coarse-filter shape metric. Returns 0 when the earlier
// segment is empty or flat.
func VolumeRatio(w models.BarWindow, recent int) float64 {
	if w.Len() <= recent {
		return 0
	}
	vols := w.Volumes()
	earlier := Mean(vols[:len(vols)-recent])
	if earlier <= 0 {
		return 0
	}
	return MeanLast(vols, recent) / earlier
}

// Turnover computes total window volume over float shares. A nil reference or
// non-positive float count yields 0 ("cannot determine").
func Turnover(w models.BarWindow, ref *models.ReferenceInfo) float64 {
	if ref == nil || ref.FloatShares <= 0 {
		return 0
	}
	return w.TotalVolume() / ref.FloatShares
}
