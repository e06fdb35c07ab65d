package usecase

import (
	"context"

	"LureScan/internal/domain/models"
	"LureScan/pkg/logger"
	"LureScan/pkg/workerpool"
)

// AnalysisFunc analyzes one symbol. ok=false means the symbol produced no
// result and is dropped from the pass.
type AnalysisFunc func(ctx context.Context, symbol string) (models.ScanResult, bool)

// Executor runs the full-analysis stage over the surviving symbols. Results
// come back in input order regardless of execution strategy, so the ranker
// sees the same tie order either way.
type Executor interface {
	Run(ctx context.Context, symbols []string, fn AnalysisFunc) []models.ScanResult
}

// SerialExecutor analyzes symbols one by one on the calling goroutine.
type SerialExecutor struct {
	log *logger.Logger
}

func NewSerialExecutor(log *logger.Logger) *SerialExecutor {
	return &SerialExecutor{log: log}
}

func (e *SerialExecutor) Run(ctx context.Context, symbols []string, fn AnalysisFunc) []models.ScanResult {
	out := make([]models.ScanResult, 0, len(symbols))
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		if res, ok := runUnit(ctx, sym, fn, e.log); ok {
			out = append(out, res)
		}
	}
	return out
}

// PooledExecutor fans symbols out over a worker pool, one unit per symbol.
type PooledExecutor struct {
	pool *workerpool.Pool
	log  *logger.Logger
}

func NewPooledExecutor(pool *workerpool.Pool, log *logger.Logger) *PooledExecutor {
	return &PooledExecutor{pool: pool, log: log}
}

func (e *PooledExecutor) Run(ctx context.Context, symbols []string, fn AnalysisFunc) []models.ScanResult {
	slots := make([]*models.ScanResult, len(symbols))
	tasks := make([]workerpool.Task, len(symbols))
	for i, sym := range symbols {
		i, sym := i, sym
		tasks[i] = func(ctx context.Context) {
			if res, ok := runUnit(ctx, sym, fn, e.log); ok {
				slots[i] = &res
			}
		}
	}
	e.pool.Run(ctx, tasks)

	out := make([]models.ScanResult, 0, len(symbols))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// runUnit isolates a single symbol's analysis; a panic drops the symbol
// instead of the pass.
func runUnit(ctx context.Context, symbol string, fn AnalysisFunc, log *logger.Logger) (res models.ScanResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if log != nil {
				log.Error("analysis unit panicked",
					logger.String("symbol", symbol),
					logger.Any("panic", r))
			}
		}
	}()
	return fn(ctx, symbol)
}
