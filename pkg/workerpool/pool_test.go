package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4, nil)
	var n int64
	tasks := make([]Task, 100)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) { atomic.AddInt64(&n, 1) }
	}
	p.Run(context.Background(), tasks)
	if n != 100 {
		t.Fatalf("ran %d tasks, want 100", n)
	}
}

func TestPoolRecoversPanic(t *testing.T) {
	p := New(2, nil)
	var n int64
	tasks := []Task{
		func(ctx context.Context) { panic("boom") },
		func(ctx context.Context) { atomic.AddInt64(&n, 1) },
	}
	p.Run(context.Background(), tasks)
	if n != 1 {
		t.Fatalf("surviving task did not run")
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	p := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var n int64
	tasks := make([]Task, 50)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) {
			if atomic.AddInt64(&n, 1) == 1 {
				cancel()
			}
		}
	}
	p.Run(ctx, tasks)
	if n == 50 {
		t.Fatalf("cancellation did not stop submission")
	}
}

func TestDefaultWorkersCap(t *testing.T) {
	if w := DefaultWorkers(); w < 1 || w > 8 {
		t.Fatalf("default workers = %d", w)
	}
}
