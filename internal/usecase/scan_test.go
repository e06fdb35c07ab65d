package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	"LureScan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fakeMarket struct {
	mu          sync.Mutex
	windows     map[string]models.BarWindow
	deepWindows map[string]models.BarWindow // served after the first call when set
	calls       int
	failCall    int // 1-based fetch call to fail, 0 = never
	barCounts   []int
}

func (f *fakeMarket) FetchWindows(_ context.Context, symbols []string, _ drepo.Period, barCount int) (map[string]models.BarWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.barCounts = append(f.barCounts, barCount)
	if f.failCall != 0 && f.calls == f.failCall {
		return nil, errors.New("upstream unavailable")
	}
	src := f.windows
	if f.deepWindows != nil && f.calls > 1 {
		src = f.deepWindows
	}
	out := make(map[string]models.BarWindow, len(symbols))
	for _, s := range symbols {
		if w, ok := src[s]; ok {
			out[s] = w
		}
	}
	return out, nil
}

type fakeUniverse struct {
	symbols []string
	err     error
	called  bool
}

func (f *fakeUniverse) ListSymbols(context.Context) ([]string, error) {
	f.called = true
	return f.symbols, f.err
}

type fakeRefs struct {
	refs map[string]models.ReferenceInfo
	err  error
}

func (f *fakeRefs) LoadAll(context.Context) (map[string]models.ReferenceInfo, error) {
	return f.refs, f.err
}

type fakeMetrics struct {
	mu      sync.Mutex
	errors  map[string]int
	signals map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, signals: map[string]int{}}
}

func (m *fakeMetrics) RecordStage(string, int, float64) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordResultSent(string, string) {}
func (m *fakeMetrics) RecordSignal(signal string) {
	m.mu.Lock()
	m.signals[signal]++
	m.mu.Unlock()
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// midSession is mid phase, so passes use a 30 bar window.
var midSession = time.Date(2026, 3, 2, 11, 0, 0, 0, time.Local)

// testWindow builds n ascending minute bars ending at midSession. Closes run
// linearly from closeStart to closeEnd, the last 3 bars carry lastVol and the
// rest baseVol, and highs/lows sit amp away from the close.
func testWindow(n int, closeStart, closeEnd, baseVol, lastVol, amp float64) models.BarWindow {
	w := make(models.BarWindow, n)
	for i := 0; i < n; i++ {
		c := closeStart
		if n > 1 {
			c = closeStart + (closeEnd-closeStart)*float64(i)/float64(n-1)
		}
		v := baseVol
		if i >= n-3 {
			v = lastVol
		}
		w[i] = models.Bar{
			Bucket: midSession.Add(-time.Duration(n-i) * time.Minute),
			Symbol: "TEST",
			Open:   c,
			High:   c * (1 + amp),
			Low:    c * (1 - amp),
			Close:  c,
			Volume: v,
		}
	}
	return w
}

// hotWindow clears stage 1, stage 2, and full analysis comfortably: +5%
// price, 3x recent volume, wide amplitude.
func hotWindow() models.BarWindow {
	return testWindow(30, 10.0, 10.5, 100_000, 300_000, 0.02)
}

// lukewarmWindow clears stage 1 only: +2.5% price, 1.5x recent volume, flat
// bars. With float shares of 1e7 its turnover passes both turnover gates, so
// it lands exactly one abnormality vote and misses the stage 2 quorum.
func lukewarmWindow() models.BarWindow {
	return testWindow(30, 10.0, 10.25, 100_000, 150_000, 0.0005)
}

// coldWindow fails stage 1 outright: flat price, flat volume.
func coldWindow() models.BarWindow {
	return testWindow(30, 10.0, 10.0, 100_000, 100_000, 0.0005)
}

func refsFor(syms ...string) map[string]models.ReferenceInfo {
	out := make(map[string]models.ReferenceInfo, len(syms))
	for _, s := range syms {
		out[s] = models.ReferenceInfo{Symbol: s, FloatShares: 1e7}
	}
	return out
}

func newTestScanner(t *testing.T, market *fakeMarket, uni *fakeUniverse, refs *fakeRefs, metrics *fakeMetrics, cfg ScanConfig) *Scanner {
	t.Helper()
	log := testLogger(t)
	serial := NewSerialExecutor(log)
	return NewScanner(market, uni, refs, nil, metrics, fixedClock{midSession}, log, serial, nil, cfg)
}

func TestScanFunnelCounts(t *testing.T) {
	market := &fakeMarket{windows: map[string]models.BarWindow{
		"HOT1": hotWindow(),
		"HOT2": hotWindow(),
		"MID1": lukewarmWindow(),
		"COLD": coldWindow(),
	}}
	uni := []string{"HOT1", "MID1", "HOT2", "COLD"}
	metrics := newFakeMetrics()
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{refs: refsFor(uni...)}, metrics, ScanConfig{})

	results, summary, err := s.Scan(context.Background(), uni, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if summary.Universe != 4 {
		t.Fatalf("universe = %d, want 4", summary.Universe)
	}
	if summary.Stage1Pass != 3 {
		t.Fatalf("stage1 = %d, want 3", summary.Stage1Pass)
	}
	if summary.Stage2Pass != 2 {
		t.Fatalf("stage2 = %d, want 2", summary.Stage2Pass)
	}
	if summary.Stage3Pass != 2 {
		t.Fatalf("stage3 = %d, want 2", summary.Stage3Pass)
	}
	if summary.Stage1Pass > summary.Universe || summary.Stage2Pass > summary.Stage1Pass || summary.Stage3Pass > summary.Stage2Pass {
		t.Fatalf("funnel not monotonic: %+v", summary)
	}
	if summary.Pooled {
		t.Fatal("small pass should run serially")
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Symbol != "HOT1" && r.Symbol != "HOT2" {
			t.Fatalf("unexpected survivor %q", r.Symbol)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Fatalf("%s confidence out of range: %v", r.Symbol, r.Confidence)
		}
		if metrics.signals[string(r.Signal)] == 0 {
			t.Fatalf("signal %s not recorded", r.Signal)
		}
	}
}

func TestScanBatchFailureSkips(t *testing.T) {
	market := &fakeMarket{
		windows: map[string]models.BarWindow{
			"HOT1": hotWindow(),
			"HOT2": hotWindow(),
			"HOT3": hotWindow(),
			"HOT4": hotWindow(),
		},
		failCall: 2, // second stage-1 batch fails
	}
	uni := []string{"HOT1", "HOT2", "HOT3", "HOT4"}
	metrics := newFakeMetrics()
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{refs: refsFor(uni...)}, metrics, ScanConfig{BatchSize: 2})

	results, summary, err := s.Scan(context.Background(), uni, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", summary.Skipped)
	}
	if summary.Stage1Pass != 2 {
		t.Fatalf("stage1 = %d, want 2", summary.Stage1Pass)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if metrics.errors["stage1_fetch"] != 1 {
		t.Fatalf("stage1_fetch errors = %d, want 1", metrics.errors["stage1_fetch"])
	}
}

func TestScanResolvesEmptyUniverse(t *testing.T) {
	market := &fakeMarket{windows: map[string]models.BarWindow{"HOT1": hotWindow()}}
	uni := &fakeUniverse{symbols: []string{"HOT1"}}
	s := newTestScanner(t, market, uni, &fakeRefs{refs: refsFor("HOT1")}, newFakeMetrics(), ScanConfig{})

	results, summary, err := s.Scan(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !uni.called {
		t.Fatal("universe source not consulted")
	}
	if summary.Universe != 1 || len(results) != 1 {
		t.Fatalf("universe = %d results = %d, want 1/1", summary.Universe, len(results))
	}
}

func TestScanUniverseListFailure(t *testing.T) {
	uni := &fakeUniverse{err: errors.New("clickhouse down")}
	s := newTestScanner(t, &fakeMarket{}, uni, &fakeRefs{}, newFakeMetrics(), ScanConfig{})

	if _, _, err := s.Scan(context.Background(), nil, 0); err == nil {
		t.Fatal("expected error when the universe source fails")
	}
}

func TestScanDegradesWithoutReferenceData(t *testing.T) {
	// Stage 1 turnover gate cannot pass without float shares, so the pass
	// should complete with zero survivors rather than fail.
	market := &fakeMarket{windows: map[string]models.BarWindow{"HOT1": hotWindow()}}
	metrics := newFakeMetrics()
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{err: errors.New("table missing")}, metrics, ScanConfig{})

	results, summary, err := s.Scan(context.Background(), []string{"HOT1"}, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(results) != 0 || summary.Stage1Pass != 0 {
		t.Fatalf("expected zero survivors without reference data, got %d", summary.Stage1Pass)
	}
	if metrics.errors["reference_load"] != 1 {
		t.Fatal("reference_load error not recorded")
	}
}

func TestScanPooledSelection(t *testing.T) {
	market := &fakeMarket{windows: map[string]models.BarWindow{
		"HOT1": hotWindow(),
		"HOT2": hotWindow(),
	}}
	uni := []string{"HOT1", "HOT2"}
	log := testLogger(t)
	pooled := NewPooledExecutor(newTestPool(4, log), log)
	s := NewScanner(market, &fakeUniverse{}, &fakeRefs{refs: refsFor(uni...)}, nil,
		newFakeMetrics(), fixedClock{midSession}, log,
		NewSerialExecutor(log), pooled, ScanConfig{MultiprocessThreshold: 2})

	_, summary, err := s.Scan(context.Background(), uni, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !summary.Pooled {
		t.Fatal("two survivors at threshold 2 should run pooled")
	}
}

func TestScanLatest(t *testing.T) {
	market := &fakeMarket{windows: map[string]models.BarWindow{
		"HOT1": hotWindow(),
		"HOT2": hotWindow(),
	}}
	uni := []string{"HOT1", "HOT2"}
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{refs: refsFor(uni...)}, newFakeMetrics(), ScanConfig{})

	if _, _, err := s.Scan(context.Background(), uni, 0); err != nil {
		t.Fatalf("scan: %v", err)
	}

	got, summary := s.Latest(1)
	if len(got) != 1 {
		t.Fatalf("latest(1) = %d results, want 1", len(got))
	}
	if summary.Stage3Pass != 2 {
		t.Fatalf("latest summary stage3 = %d, want 2", summary.Stage3Pass)
	}

	// Mutating the returned slice must not touch the cached pass.
	got[0].Symbol = "MUTATED"
	again, _ := s.Latest(1)
	if again[0].Symbol == "MUTATED" {
		t.Fatal("Latest returned the internal slice")
	}
}

func TestScanExcludesInsufficientHistory(t *testing.T) {
	// HOT1's deep fetch comes back with too few bars for full analysis; it
	// must be counted but never appear in the ranked output.
	market := &fakeMarket{
		windows: map[string]models.BarWindow{
			"HOT1": hotWindow(),
			"HOT2": hotWindow(),
		},
		deepWindows: map[string]models.BarWindow{
			"HOT1": testWindow(15, 10.0, 10.5, 100_000, 300_000, 0.02),
			"HOT2": hotWindow(),
		},
	}
	uni := []string{"HOT1", "HOT2"}
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{refs: refsFor(uni...)}, newFakeMetrics(), ScanConfig{})

	results, summary, err := s.Scan(context.Background(), uni, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Insufficient != 1 {
		t.Fatalf("insufficient = %d, want 1", summary.Insufficient)
	}
	if summary.Stage3Pass != 2 {
		t.Fatalf("stage3 = %d, want 2 analyzed", summary.Stage3Pass)
	}
	if len(results) != 1 || results[0].Symbol != "HOT2" {
		t.Fatalf("ranked = %v, want only HOT2", results)
	}
	for _, r := range results {
		if r.InsufficientData {
			t.Fatalf("ranked output contains insufficient-history result %q", r.Symbol)
		}
	}
}

func TestScanAtWindowSizing(t *testing.T) {
	market := &fakeMarket{windows: map[string]models.BarWindow{"HOT1": hotWindow()}}
	s := newTestScanner(t, market, &fakeUniverse{}, &fakeRefs{refs: refsFor("HOT1")}, newFakeMetrics(), ScanConfig{})

	early := time.Date(2026, 3, 2, 9, 45, 0, 0, time.Local)
	if _, _, err := s.ScanAt(context.Background(), []string{"HOT1"}, 0, early); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// Stage 1 fetches the 10-bar early window; stage 3 deepens to the
	// 20-bar analysis minimum.
	if len(market.barCounts) != 2 {
		t.Fatalf("fetch calls = %d, want 2", len(market.barCounts))
	}
	if market.barCounts[0] != 10 {
		t.Fatalf("stage1 bar count = %d, want 10", market.barCounts[0])
	}
	if market.barCounts[1] != 20 {
		t.Fatalf("stage3 bar count = %d, want 20", market.barCounts[1])
	}
}

func TestRankStableAndTruncates(t *testing.T) {
	in := []models.ScanResult{
		{Symbol: "A", Confidence: 0.4},
		{Symbol: "B", Confidence: 0.85},
		{Symbol: "C", Confidence: 0.65},
		{Symbol: "D", Confidence: 0.65},
		{Symbol: "E", Confidence: 0.85},
	}

	ranked := Rank(in, 0)
	want := []string{"B", "E", "C", "D", "A"}
	for i, sym := range want {
		if ranked[i].Symbol != sym {
			t.Fatalf("rank[%d] = %s, want %s", i, ranked[i].Symbol, sym)
		}
	}
	if in[0].Symbol != "A" {
		t.Fatal("Rank mutated its input")
	}

	top := Rank(in, 2)
	if len(top) != 2 || top[0].Symbol != "B" || top[1].Symbol != "E" {
		t.Fatalf("top2 = %v", top)
	}
}
