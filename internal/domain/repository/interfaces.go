package repository

import (
	"context"
	"time"

	"LureScan/internal/domain/models"
)

// MarketData provides bulk bar-window access for the funnel. Symbols missing
// from the returned map mean "no data", not an error.
type MarketData interface {
	FetchWindows(ctx context.Context, symbols []string, period Period, barCount int) (map[string]models.BarWindow, error)
}

// BarStorage persists minute bars built from the live tick stream.
type BarStorage interface {
	StoreBars(ctx context.Context, bars []models.Bar) error
	Close() error
}

// UniverseSource lists the symbols known to the bar store.
type UniverseSource interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// ReferenceSource loads static float-share reference data.
type ReferenceSource interface {
	LoadAll(ctx context.Context) (map[string]models.ReferenceInfo, error)
}

// ResultStore persists scan results.
type ResultStore interface {
	StoreResults(ctx context.Context, results []models.ScanResult) error
	LatestResults(ctx context.Context, limit int) ([]models.ScanResult, error)
	Health(ctx context.Context) error
	Close() error
}

// ResultPublisher publishes a ranked scan outcome to downstream consumers.
type ResultPublisher interface {
	PublishResults(ctx context.Context, results []models.ScanResult, summary models.ScanSummary) error
	Close() error
}

// TickStream is a live trade feed (websocket or equivalent).
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records scan observability counters.
type Metrics interface {
	RecordStage(stage string, survivors int, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordResultSent(sink, symbol string)
	RecordSignal(signal string)
}

// Clock abstracts pass timestamps so funnel tests can pin session time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
