package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	"LureScan/internal/services/screen"
	"LureScan/pkg/logger"
)

// ScanConfig carries the funnel thresholds. Zero values fall back to the
// defaults below.
type ScanConfig struct {
	Period                drepo.Period
	BatchSize             int
	Stage1PriceChangeMin  float64
	Stage1TurnoverMin     float64
	Stage1VolumeRatioMin  float64
	Stage2VolumeRatioMin  float64
	Stage2ActivityMin     float64
	Stage2TurnoverMin     float64
	Stage2RequiredDims    int
	MultiprocessThreshold int
	TopN                  int
	WindowOverride        map[string]int
}

func (c *ScanConfig) applyDefaults() {
	if c.Period == "" {
		c.Period = drepo.DefaultPeriod()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.Stage1PriceChangeMin == 0 {
		c.Stage1PriceChangeMin = 0.02
	}
	if c.Stage1TurnoverMin == 0 {
		c.Stage1TurnoverMin = 0.03
	}
	if c.Stage1VolumeRatioMin == 0 {
		c.Stage1VolumeRatioMin = 1.3
	}
	if c.Stage2VolumeRatioMin == 0 {
		c.Stage2VolumeRatioMin = 2.0
	}
	if c.Stage2ActivityMin == 0 {
		c.Stage2ActivityMin = 0.03
	}
	if c.Stage2TurnoverMin == 0 {
		c.Stage2TurnoverMin = 0.02
	}
	if c.Stage2RequiredDims <= 0 {
		c.Stage2RequiredDims = 2
	}
	if c.MultiprocessThreshold <= 0 {
		c.MultiprocessThreshold = 100
	}
	if c.TopN <= 0 {
		c.TopN = 50
	}
}

// Scanner runs the three-stage funnel over a symbol universe and keeps the
// last pass in memory for the read API.
type Scanner struct {
	market   drepo.MarketData
	universe drepo.UniverseSource
	refs     drepo.ReferenceSource
	writer   *ResultWriter
	metrics  drepo.Metrics
	clock    drepo.Clock
	log      *logger.Logger

	serial Executor
	pooled Executor
	cfg    ScanConfig

	mu          sync.RWMutex
	lastResults []models.ScanResult
	lastSummary models.ScanSummary
}

func NewScanner(
	market drepo.MarketData,
	universe drepo.UniverseSource,
	refs drepo.ReferenceSource,
	writer *ResultWriter,
	metrics drepo.Metrics,
	clock drepo.Clock,
	log *logger.Logger,
	serial Executor,
	pooled Executor,
	cfg ScanConfig,
) *Scanner {
	cfg.applyDefaults()
	if clock == nil {
		clock = drepo.SystemClock{}
	}
	return &Scanner{
		market:   market,
		universe: universe,
		refs:     refs,
		writer:   writer,
		metrics:  metrics,
		clock:    clock,
		log:      log,
		serial:   serial,
		pooled:   pooled,
		cfg:      cfg,
	}
}

// Scan runs one full pass stamped with the current clock time. An empty
// universe is resolved from the universe source; topN <= 0 falls back to the
// configured default.
func (s *Scanner) Scan(ctx context.Context, universe []string, topN int) ([]models.ScanResult, models.ScanSummary, error) {
	return s.ScanAt(ctx, universe, topN, s.clock.Now())
}

// ScanAt runs one full pass as of the given session time, which drives window
// sizing and session-period classification.
func (s *Scanner) ScanAt(ctx context.Context, universe []string, topN int, at time.Time) ([]models.ScanResult, models.ScanSummary, error) {
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	if len(universe) == 0 {
		syms, err := s.universe.ListSymbols(ctx)
		if err != nil {
			s.metrics.RecordError("universe_list")
			return nil, models.ScanSummary{}, fmt.Errorf("list universe: %w", err)
		}
		universe = syms
	}

	summary := models.ScanSummary{
		StartedAt:    at,
		Universe:     len(universe),
		StageSeconds: map[string]float64{},
	}

	refs := s.loadRefs(ctx)
	barCount := screen.WindowBars(screen.PhaseAt(at), s.cfg.WindowOverride)

	// Stage 1: batched coarse filter.
	start := time.Now()
	windows := s.stage1(ctx, universe, refs, barCount, &summary)
	summary.Stage1Pass = len(windows)
	s.recordStage("stage1", len(windows), time.Since(start), &summary)

	// Stage 2: lightweight screen over the already-fetched windows.
	start = time.Now()
	survivors := s.stage2(universe, windows, refs)
	summary.Stage2Pass = len(survivors)
	s.recordStage("stage2", len(survivors), time.Since(start), &summary)

	// Stage 3: full analysis, serial or pooled by survivor count.
	start = time.Now()
	results, pooled := s.stage3(ctx, survivors, refs, barCount, at)
	summary.Stage3Pass = len(results)
	summary.Failed = len(survivors) - len(results)
	summary.Pooled = pooled

	// Symbols without enough history are counted but never ranked.
	complete := make([]models.ScanResult, 0, len(results))
	for _, r := range results {
		if r.InsufficientData {
			summary.Insufficient++
			continue
		}
		s.metrics.RecordSignal(string(r.Signal))
		complete = append(complete, r)
	}
	s.recordStage("stage3", len(results), time.Since(start), &summary)

	ranked := Rank(complete, topN)

	if s.writer != nil {
		if err := s.writer.Write(ctx, ranked, summary); err != nil {
			s.log.Error("write scan results", logger.Error(err))
		}
	}

	s.mu.Lock()
	s.lastResults = ranked
	s.lastSummary = summary
	s.mu.Unlock()

	s.log.Info("scan pass complete",
		logger.Int("universe", summary.Universe),
		logger.Int("stage1", summary.Stage1Pass),
		logger.Int("stage2", summary.Stage2Pass),
		logger.Int("stage3", summary.Stage3Pass),
		logger.Int("ranked", len(ranked)),
		logger.Bool("pooled", summary.Pooled))

	return ranked, summary, nil
}

// Latest returns the most recent pass held in memory.
func (s *Scanner) Latest(limit int) ([]models.ScanResult, models.ScanSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := s.lastResults
	if limit > 0 && limit < len(res) {
		res = res[:limit]
	}
	out := make([]models.ScanResult, len(res))
	copy(out, res)
	return out, s.lastSummary
}

func (s *Scanner) loadRefs(ctx context.Context) map[string]models.ReferenceInfo {
	if s.refs == nil {
		return nil
	}
	refs, err := s.refs.LoadAll(ctx)
	if err != nil {
		s.metrics.RecordError("reference_load")
		s.log.Warn("reference data unavailable, turnover degraded", logger.Error(err))
		return nil
	}
	return refs
}

// stage1 fetches windows batch by batch and keeps symbols whose coarse shape
// clears all three gates. A failed batch fetch skips its symbols.
func (s *Scanner) stage1(ctx context.Context, universe []string, refs map[string]models.ReferenceInfo, barCount int, summary *models.ScanSummary) map[string]models.BarWindow {
	kept := make(map[string]models.BarWindow)
	for off := 0; off < len(universe); off += s.cfg.BatchSize {
		end := off + s.cfg.BatchSize
		if end > len(universe) {
			end = len(universe)
		}
		batch := universe[off:end]

		windows, err := s.market.FetchWindows(ctx, batch, s.cfg.Period, barCount)
		if err != nil {
			s.metrics.RecordError("stage1_fetch")
			s.log.Warn("batch fetch failed, skipping",
				logger.Int("batch_start", off),
				logger.Int("batch_size", len(batch)),
				logger.Error(err))
			summary.Skipped += len(batch)
			continue
		}

		for _, sym := range batch {
			w, ok := windows[sym]
			if !ok || w.Len() == 0 {
				continue
			}
			ref := refPtr(refs, sym)
			if s.stage1Pass(w, ref) {
				kept[sym] = w
			}
		}
	}
	return kept
}

func (s *Scanner) stage1Pass(w models.BarWindow, ref *models.ReferenceInfo) bool {
	return screen.PriceChange(w) > s.cfg.Stage1PriceChangeMin &&
		screen.Turnover(w, ref) > s.cfg.Stage1TurnoverMin &&
		screen.VolumeRatio(w, 3) > s.cfg.Stage1VolumeRatioMin
}

// stage2 keeps stage-1 survivors showing abnormality on enough dimensions.
// Iterating the universe slice keeps survivor order deterministic.
func (s *Scanner) stage2(universe []string, windows map[string]models.BarWindow, refs map[string]models.ReferenceInfo) []string {
	var out []string
	for _, sym := range universe {
		w, ok := windows[sym]
		if !ok {
			continue
		}
		if s.stage2Votes(w, refPtr(refs, sym)) >= s.cfg.Stage2RequiredDims {
			out = append(out, sym)
		}
	}
	return out
}

func (s *Scanner) stage2Votes(w models.BarWindow, ref *models.ReferenceInfo) int {
	votes := 0
	if screen.VolumeRatio(w, 3) > s.cfg.Stage2VolumeRatioMin {
		votes++
	}
	activity := screen.PriceChange(w)
	if amp := screen.MeanAmplitude(w); amp > activity {
		activity = amp
	}
	if activity > s.cfg.Stage2ActivityMin {
		votes++
	}
	if screen.Turnover(w, ref) > s.cfg.Stage2TurnoverMin {
		votes++
	}
	return votes
}

func (s *Scanner) stage3(ctx context.Context, survivors []string, refs map[string]models.ReferenceInfo, barCount int, at time.Time) ([]models.ScanResult, bool) {
	if len(survivors) == 0 {
		return nil, false
	}

	// Full analysis wants deeper history than the coarse stages.
	deep := barCount
	if deep < screen.MinBars {
		deep = screen.MinBars
	}
	windows, err := s.market.FetchWindows(ctx, survivors, s.cfg.Period, deep)
	if err != nil {
		s.metrics.RecordError("stage3_fetch")
		s.log.Error("stage3 fetch failed", logger.Error(err))
		return nil, false
	}

	fn := func(ctx context.Context, sym string) (models.ScanResult, bool) {
		w, ok := windows[sym]
		if !ok {
			return models.ScanResult{}, false
		}
		return screen.Analyze(sym, w, refPtr(refs, sym), at), true
	}

	pooled := len(survivors) >= s.cfg.MultiprocessThreshold && s.pooled != nil
	exec := s.serial
	if pooled {
		exec = s.pooled
	}
	return exec.Run(ctx, survivors, fn), pooled
}

func (s *Scanner) recordStage(stage string, survivors int, d time.Duration, summary *models.ScanSummary) {
	secs := d.Seconds()
	summary.StageSeconds[stage] = secs
	s.metrics.RecordStage(stage, survivors, secs)
}

// Rank orders results by confidence descending. The sort is stable so equal
// confidences keep discovery order, then truncates to topN.
func Rank(results []models.ScanResult, topN int) []models.ScanResult {
	out := make([]models.ScanResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}

func refPtr(refs map[string]models.ReferenceInfo, sym string) *models.ReferenceInfo {
	if refs == nil {
		return nil
	}
	if r, ok := refs[sym]; ok {
		return &r
	}
	return nil
}
