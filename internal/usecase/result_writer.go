package usecase

import (
	"context"
	"fmt"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
)

// ResultWriter routes a finished pass to the configured backends. Backend is
// "kafka", "clickhouse", or "both".
type ResultWriter struct {
	pub     drepo.ResultPublisher
	store   drepo.ResultStore
	metrics drepo.Metrics
	backend string
}

func NewResultWriter(pub drepo.ResultPublisher, store drepo.ResultStore, metrics drepo.Metrics, backend string) *ResultWriter {
	return &ResultWriter{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (w *ResultWriter) Write(ctx context.Context, results []models.ScanResult, summary models.ScanSummary) error {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch w.backend {
	case "kafka":
		err = w.pub.PublishResults(ctx, results, summary)
	case "clickhouse":
		err = w.store.StoreResults(ctx, results)
	case "both":
		if err = w.store.StoreResults(ctx, results); err == nil {
			err = w.pub.PublishResults(ctx, results, summary)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", w.backend)
	}

	if err != nil {
		w.metrics.RecordError("write_results")
		return fmt.Errorf("write results: %w", err)
	}

	for _, r := range results {
		w.metrics.RecordResultSent(w.backend, r.Symbol)
	}
	w.metrics.RecordLatency("write_results", time.Since(start).Seconds())
	return nil
}

// Close closes underlying sinks if present.
func (w *ResultWriter) Close() {
	if w.pub != nil {
		_ = w.pub.Close()
	}
	if w.store != nil {
		_ = w.store.Close()
	}
}
