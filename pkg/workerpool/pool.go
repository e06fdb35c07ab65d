package workerpool

import (
	"context"
	"runtime"
	"sync"

	"LureScan/pkg/logger"
)

// Task is one unit of work executed by the pool.
type Task func(ctx context.Context)

// Pool fans a batch of tasks out over a fixed set of workers. It is cheap to
// construct and holds no goroutines between Run calls.
type Pool struct {
	workers int
	log     *logger.Logger
}

// DefaultWorkers caps pool size at eight regardless of core count.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

func New(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	return &Pool{workers: workers, log: log}
}

func (p *Pool) Workers() int { return p.workers }

// Run executes all tasks and blocks until they finish or ctx is cancelled.
// Tasks submitted after cancellation are dropped.
func (p *Pool) Run(ctx context.Context, tasks []Task) {
	if len(tasks) == 0 {
		return
	}

	ch := make(chan Task)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				p.exec(ctx, t)
			}
		}()
	}

	for _, t := range tasks {
		select {
		case <-ctx.Done():
			close(ch)
			wg.Wait()
			return
		case ch <- t:
		}
	}
	close(ch)
	wg.Wait()
}

func (p *Pool) exec(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Error("worker task panicked", logger.Any("panic", r))
		}
	}()
	t(ctx)
}
