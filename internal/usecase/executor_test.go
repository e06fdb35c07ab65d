package usecase

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"LureScan/internal/domain/models"
	"LureScan/pkg/logger"
	"LureScan/pkg/workerpool"
)

func newTestPool(workers int, log *logger.Logger) *workerpool.Pool {
	return workerpool.New(workers, log)
}

func indexedAnalysis(symbols []string) AnalysisFunc {
	conf := make(map[string]float64, len(symbols))
	for i, s := range symbols {
		conf[s] = float64(i) / float64(len(symbols))
	}
	return func(_ context.Context, sym string) (models.ScanResult, bool) {
		c, ok := conf[sym]
		if !ok {
			return models.ScanResult{}, false
		}
		return models.ScanResult{Symbol: sym, Signal: models.SignalNeutral, Confidence: c}, true
	}
}

func TestSerialPooledEquivalence(t *testing.T) {
	log := testLogger(t)
	symbols := make([]string, 120)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%03d", i)
	}
	fn := indexedAnalysis(symbols)

	serial := NewSerialExecutor(log).Run(context.Background(), symbols, fn)
	pooled := NewPooledExecutor(newTestPool(4, log), log).Run(context.Background(), symbols, fn)

	if !reflect.DeepEqual(serial, pooled) {
		t.Fatalf("serial and pooled passes diverged: %d vs %d results", len(serial), len(pooled))
	}
	for i, r := range serial {
		if r.Symbol != symbols[i] {
			t.Fatalf("result %d = %s, want input order %s", i, r.Symbol, symbols[i])
		}
	}
}

func TestExecutorsDropUnanalyzedSymbols(t *testing.T) {
	log := testLogger(t)
	symbols := []string{"A", "SKIP", "B"}
	fn := func(_ context.Context, sym string) (models.ScanResult, bool) {
		if sym == "SKIP" {
			return models.ScanResult{}, false
		}
		return models.ScanResult{Symbol: sym, Confidence: 0.5}, true
	}

	for name, exec := range map[string]Executor{
		"serial": NewSerialExecutor(log),
		"pooled": NewPooledExecutor(newTestPool(2, log), log),
	} {
		got := exec.Run(context.Background(), symbols, fn)
		if len(got) != 2 || got[0].Symbol != "A" || got[1].Symbol != "B" {
			t.Fatalf("%s: got %v, want [A B]", name, got)
		}
	}
}

func TestExecutorsSurvivePanickingUnit(t *testing.T) {
	log := testLogger(t)
	symbols := []string{"A", "BOOM", "B"}
	fn := func(_ context.Context, sym string) (models.ScanResult, bool) {
		if sym == "BOOM" {
			panic("bad window")
		}
		return models.ScanResult{Symbol: sym, Confidence: 0.5}, true
	}

	for name, exec := range map[string]Executor{
		"serial": NewSerialExecutor(log),
		"pooled": NewPooledExecutor(newTestPool(2, log), log),
	} {
		got := exec.Run(context.Background(), symbols, fn)
		if len(got) != 2 || got[0].Symbol != "A" || got[1].Symbol != "B" {
			t.Fatalf("%s: got %v, want [A B]", name, got)
		}
	}
}

func TestSerialExecutorStopsOnCancel(t *testing.T) {
	log := testLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	fn := func(_ context.Context, sym string) (models.ScanResult, bool) {
		seen++
		if seen == 2 {
			cancel()
		}
		return models.ScanResult{Symbol: sym}, true
	}

	got := NewSerialExecutor(log).Run(ctx, []string{"A", "B", "C", "D"}, fn)
	if len(got) != 2 {
		t.Fatalf("cancelled run produced %d results, want 2", len(got))
	}
}
