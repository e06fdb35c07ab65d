package usecase

import (
	"context"
	"sync"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	mid "LureScan/internal/middleware"
	"LureScan/pkg/logger"
)

// BarBuilder folds live ticks into per-symbol minute bars and flushes closed
// buckets to storage.
type BarBuilder struct {
	store   drepo.BarStorage
	metrics drepo.Metrics

	mu   sync.Mutex
	open map[string]*models.Bar
}

func NewBarBuilder(store drepo.BarStorage, metrics drepo.Metrics) *BarBuilder {
	return &BarBuilder{store: store, metrics: metrics, open: make(map[string]*models.Bar)}
}

// Accept folds one tick into its symbol's open bar. Crossing a minute
// boundary closes the previous bar and writes it out.
func (b *BarBuilder) Accept(ctx context.Context, t *models.Tick) error {
	bucket := time.Unix(t.Timestamp, 0).Truncate(time.Minute)

	b.mu.Lock()
	var closed *models.Bar
	cur, ok := b.open[t.Symbol]
	if ok && cur.Bucket.Before(bucket) {
		closed = cur
		ok = false
	}
	if !ok {
		b.open[t.Symbol] = &models.Bar{
			Bucket: bucket,
			Symbol: t.Symbol,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
			Close:  t.Price,
			Volume: t.Volume,
		}
	} else {
		if t.Price > cur.High {
			cur.High = t.Price
		}
		if t.Price < cur.Low {
			cur.Low = t.Price
		}
		cur.Close = t.Price
		cur.Volume += t.Volume
	}
	b.mu.Unlock()

	if closed != nil {
		return b.write(ctx, []models.Bar{*closed})
	}
	return nil
}

// FlushBefore writes out every open bar whose bucket closed before cutoff.
func (b *BarBuilder) FlushBefore(ctx context.Context, cutoff time.Time) error {
	b.mu.Lock()
	var done []models.Bar
	for sym, bar := range b.open {
		if bar.Bucket.Add(time.Minute).Before(cutoff) || bar.Bucket.Add(time.Minute).Equal(cutoff) {
			done = append(done, *bar)
			delete(b.open, sym)
		}
	}
	b.mu.Unlock()

	if len(done) == 0 {
		return nil
	}
	return b.write(ctx, done)
}

func (b *BarBuilder) write(ctx context.Context, bars []models.Bar) error {
	start := time.Now()
	if err := b.store.StoreBars(ctx, bars); err != nil {
		b.metrics.RecordError("bar_store")
		return err
	}
	b.metrics.RecordLatency("bar_store", time.Since(start).Seconds())
	return nil
}

// BarCollector drives the live stream into the bar builder, through the
// ingest pipeline when one is configured.
type BarCollector struct {
	stream  drepo.TickStream
	builder *BarBuilder
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
	log     *logger.Logger

	flushEvery time.Duration
	stopCh     chan struct{}
}

func NewBarCollector(stream drepo.TickStream, builder *BarBuilder, metrics drepo.Metrics, pipe *mid.IngestPipeline, log *logger.Logger) *BarCollector {
	return &BarCollector{
		stream:     stream,
		builder:    builder,
		metrics:    metrics,
		pipe:       pipe,
		log:        log,
		flushEvery: 15 * time.Second,
		stopCh:     make(chan struct{}),
	}
}

// IsConnected reports the live stream state.
func (c *BarCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *BarCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	go c.flushLoop(ctx)
	return nil
}

func (c *BarCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.builder.Accept(ctx, t)
			}
		}
	}
}

func (c *BarCollector) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(c.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			if err := c.builder.FlushBefore(ctx, now.Truncate(time.Minute)); err != nil {
				c.log.Warn("bar flush failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *BarCollector) Shutdown(ctx context.Context) error {
	close(c.stopCh)
	if c.pipe != nil {
		c.pipe.Stop()
	}
	_ = c.builder.FlushBefore(ctx, time.Now().Add(time.Minute))
	return c.stream.Close()
}
