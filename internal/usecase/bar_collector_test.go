package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"LureScan/internal/domain/models"
)

type fakeBarStore struct {
	mu   sync.Mutex
	bars []models.Bar
}

func (f *fakeBarStore) StoreBars(_ context.Context, bars []models.Bar) error {
	f.mu.Lock()
	f.bars = append(f.bars, bars...)
	f.mu.Unlock()
	return nil
}
func (f *fakeBarStore) Close() error { return nil }

func (f *fakeBarStore) stored() []models.Bar {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Bar, len(f.bars))
	copy(out, f.bars)
	return out
}

func tick(sym string, at time.Time, price, vol float64) *models.Tick {
	return &models.Tick{Symbol: sym, Timestamp: at.Unix(), Price: price, Volume: vol}
}

func TestBarBuilderAggregatesMinute(t *testing.T) {
	store := &fakeBarStore{}
	b := NewBarBuilder(store, newFakeMetrics())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// Three ticks in the same minute, then one in the next minute closes it.
	_ = b.Accept(ctx, tick("AAA", base.Add(5*time.Second), 10.0, 100))
	_ = b.Accept(ctx, tick("AAA", base.Add(20*time.Second), 10.5, 200))
	_ = b.Accept(ctx, tick("AAA", base.Add(40*time.Second), 9.8, 50))
	if len(store.stored()) != 0 {
		t.Fatal("bar closed before its minute rolled")
	}

	_ = b.Accept(ctx, tick("AAA", base.Add(65*time.Second), 10.1, 10))
	got := store.stored()
	if len(got) != 1 {
		t.Fatalf("stored %d bars, want 1", len(got))
	}
	bar := got[0]
	if !bar.Bucket.Equal(base) {
		t.Fatalf("bucket = %v, want %v", bar.Bucket, base)
	}
	if bar.Open != 10.0 || bar.High != 10.5 || bar.Low != 9.8 || bar.Close != 9.8 {
		t.Fatalf("ohlc = %v/%v/%v/%v", bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Volume != 350 {
		t.Fatalf("volume = %v, want 350", bar.Volume)
	}
}

func TestBarBuilderKeepsSymbolsSeparate(t *testing.T) {
	store := &fakeBarStore{}
	b := NewBarBuilder(store, newFakeMetrics())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_ = b.Accept(ctx, tick("AAA", base.Add(time.Second), 10.0, 100))
	_ = b.Accept(ctx, tick("BBB", base.Add(2*time.Second), 20.0, 300))
	_ = b.Accept(ctx, tick("AAA", base.Add(61*time.Second), 10.2, 10))

	got := store.stored()
	if len(got) != 1 || got[0].Symbol != "AAA" {
		t.Fatalf("stored = %v, want only AAA's closed bar", got)
	}
}

func TestBarBuilderFlushBefore(t *testing.T) {
	store := &fakeBarStore{}
	b := NewBarBuilder(store, newFakeMetrics())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_ = b.Accept(ctx, tick("AAA", base.Add(30*time.Second), 10.0, 100))

	// Cutoff inside the bar's own minute: nothing to flush yet.
	if err := b.FlushBefore(ctx, base.Add(59*time.Second)); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(store.stored()) != 0 {
		t.Fatal("flushed a still-open bar")
	}

	// Cutoff at the bucket boundary closes it.
	if err := b.FlushBefore(ctx, base.Add(time.Minute)); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := store.stored()
	if len(got) != 1 || got[0].Volume != 100 {
		t.Fatalf("stored = %v, want one flushed bar", got)
	}

	// Flushing again is a no-op.
	if err := b.FlushBefore(ctx, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(store.stored()) != 1 {
		t.Fatal("double flush duplicated the bar")
	}
}
