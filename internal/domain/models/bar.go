package models

import "time"

// Bar represents one OHLCV record.
type Bar struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarWindow is an ordered (ascending by bucket) lookback window of bars for
// one symbol. It is never mutated after creation; analyzers treat it as
// read-only input.
type BarWindow []Bar

// Len returns the number of bars in the window.
func (w BarWindow) Len() int { return len(w) }

// Last returns the most recent bar. Callers must check Len first.
func (w BarWindow) Last() Bar { return w[len(w)-1] }

// Volumes returns the volume series of the window.
func (w BarWindow) Volumes() []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Volume
	}
	return out
}

// Closes returns the close series of the window.
func (w BarWindow) Closes() []float64 {
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = b.Close
	}
	return out
}

// TotalVolume returns the summed volume over the window.
func (w BarWindow) TotalVolume() float64 {
	sum := 0.0
	for _, b := range w {
		sum += b.Volume
	}
	return sum
}

// Tick is a single trade print from the live stream, aggregated into bars by
// the collector.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}
