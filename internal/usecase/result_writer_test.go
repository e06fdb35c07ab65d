package usecase

import (
	"context"
	"errors"
	"testing"

	"LureScan/internal/domain/models"
)

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) PublishResults(_ context.Context, results []models.ScanResult, _ models.ScanSummary) error {
	if f.err != nil {
		return f.err
	}
	f.published += len(results)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type fakeResultStore struct {
	stored int
	err    error
}

func (f *fakeResultStore) StoreResults(_ context.Context, results []models.ScanResult) error {
	if f.err != nil {
		return f.err
	}
	f.stored += len(results)
	return nil
}
func (f *fakeResultStore) LatestResults(context.Context, int) ([]models.ScanResult, error) {
	return nil, nil
}
func (f *fakeResultStore) Health(context.Context) error { return nil }
func (f *fakeResultStore) Close() error                 { return nil }

func sampleResults(n int) []models.ScanResult {
	out := make([]models.ScanResult, n)
	for i := range out {
		out[i] = models.ScanResult{Symbol: "SYM", Signal: models.SignalNeutral, Confidence: 0.4}
	}
	return out
}

func TestResultWriterBackends(t *testing.T) {
	cases := []struct {
		backend       string
		wantStored    int
		wantPublished int
	}{
		{"kafka", 0, 3},
		{"clickhouse", 3, 0},
		{"both", 3, 3},
	}
	for _, tc := range cases {
		pub := &fakePublisher{}
		store := &fakeResultStore{}
		w := NewResultWriter(pub, store, newFakeMetrics(), tc.backend)

		if err := w.Write(context.Background(), sampleResults(3), models.ScanSummary{}); err != nil {
			t.Fatalf("%s: %v", tc.backend, err)
		}
		if store.stored != tc.wantStored || pub.published != tc.wantPublished {
			t.Fatalf("%s: stored=%d published=%d, want %d/%d",
				tc.backend, store.stored, pub.published, tc.wantStored, tc.wantPublished)
		}
	}
}

func TestResultWriterBothStopsOnStoreFailure(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeResultStore{err: errors.New("insert failed")}
	metrics := newFakeMetrics()
	w := NewResultWriter(pub, store, metrics, "both")

	if err := w.Write(context.Background(), sampleResults(2), models.ScanSummary{}); err == nil {
		t.Fatal("expected error from failing store")
	}
	if pub.published != 0 {
		t.Fatal("publish should not run after a store failure")
	}
	if metrics.errors["write_results"] != 1 {
		t.Fatalf("write_results errors = %d, want 1", metrics.errors["write_results"])
	}
}

func TestResultWriterEmptyPassIsNoop(t *testing.T) {
	store := &fakeResultStore{err: errors.New("should not be called")}
	w := NewResultWriter(&fakePublisher{}, store, newFakeMetrics(), "clickhouse")

	if err := w.Write(context.Background(), nil, models.ScanSummary{}); err != nil {
		t.Fatalf("empty write: %v", err)
	}
}

func TestResultWriterUnknownBackend(t *testing.T) {
	w := NewResultWriter(&fakePublisher{}, &fakeResultStore{}, newFakeMetrics(), "postgres")
	if err := w.Write(context.Background(), sampleResults(1), models.ScanSummary{}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
