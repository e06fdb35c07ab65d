package di

import (
	"context"
	"fmt"
	"time"

	"LureScan/internal/domain/repository"
	mid "LureScan/internal/middleware"
	internalrepo "LureScan/internal/repository"
	"LureScan/internal/service/marketdata"
	"LureScan/internal/service/ratelimit"
	"LureScan/internal/service/refdata"
	"LureScan/internal/service/stream"
	"LureScan/internal/usecase"
	pkgcache "LureScan/pkg/cache"
	pkgch "LureScan/pkg/clickhouse"
	"LureScan/pkg/config"
	pkgkafka "LureScan/pkg/kafka"
	applogger "LureScan/pkg/logger"
	"LureScan/pkg/metrics"
	"LureScan/pkg/server"
	"LureScan/pkg/workerpool"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS lurescan",
		"CREATE TABLE IF NOT EXISTS lurescan.bars_1m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS lurescan.scan_results (ts DateTime, symbol String, signal String, confidence Float64, reason String, insufficient UInt8, quantity_label String, price_label String, space_label String, time_label String) ENGINE=MergeTree ORDER BY (ts, symbol)",
		"CREATE TABLE IF NOT EXISTS lurescan.reference (symbol String, float_shares Float64, updated_at DateTime DEFAULT now()) ENGINE=ReplacingMergeTree(updated_at) ORDER BY symbol",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. With no
// request topic there is nothing to consume, so no consumer is built.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.RequestTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the cache service: layered memory+Redis when Redis is
// enabled, in-process LRU otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Cache.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix("lurescan"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MemorySize)), nil
	}
	return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) *internalrepo.CHBarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideMarketData selects the funnel's bar source and wraps it with the
// cache and rate limiter.
func ProvideMarketData(cfg *config.Config, barStore *internalrepo.CHBarStore, c pkgcache.Service, l *applogger.Logger) repository.MarketData {
	var base repository.MarketData
	switch cfg.MarketData.Source {
	case "http":
		opts := []marketdata.Option{marketdata.WithAPIKey(cfg.MarketData.APIKey)}
		if cfg.MarketData.Timeout > 0 {
			opts = append(opts, marketdata.WithTimeout(cfg.MarketData.Timeout))
		}
		base = marketdata.NewClient(cfg.MarketData.BaseURL, opts...)
	default:
		base = barStore
	}
	return marketdata.NewCached(base, c, ratelimit.New(),
		cfg.MarketData.CacheTTL, cfg.MarketData.RPSCap, cfg.MarketData.RPSRate, l)
}

// ProvideReferenceSource creates the TTL-cached reference store.
func ProvideReferenceSource(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.ReferenceSource {
	src := internalrepo.NewCHReferenceSource(chClient, cfg.Reference.Table)
	return refdata.NewStore(src, cfg.Reference.TTL, l)
}

// ProvideResultStore creates the ClickHouse result store.
func ProvideResultStore(chClient *pkgch.Client) repository.ResultStore {
	return internalrepo.NewCHResultStore(chClient, "")
}

// ProvideResultPublisher creates the Kafka result publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultTopic, cfg.Kafka.SummaryTopic)
}

// ProvideResultWriter routes finished passes to the configured backends.
func ProvideResultWriter(pub repository.ResultPublisher, store repository.ResultStore, m repository.Metrics, cfg *config.Config) *usecase.ResultWriter {
	return usecase.NewResultWriter(pub, store, m, cfg.Backend.Type)
}

// ProvideSerialExecutor creates the serial analysis executor.
func ProvideSerialExecutor(l *applogger.Logger) *usecase.SerialExecutor {
	return usecase.NewSerialExecutor(l)
}

// ProvidePooledExecutor creates the pooled analysis executor. Worker count is
// resolved once here from config and core count.
func ProvidePooledExecutor(cfg *config.Config, l *applogger.Logger) *usecase.PooledExecutor {
	workers := cfg.Scan.MaxWorkers
	if workers <= 0 || workers > workerpool.DefaultWorkers() {
		workers = workerpool.DefaultWorkers()
	}
	return usecase.NewPooledExecutor(workerpool.New(workers, l), l)
}

// ProvideScanner creates the funnel orchestrator.
func ProvideScanner(
	market repository.MarketData,
	barStore *internalrepo.CHBarStore,
	refs repository.ReferenceSource,
	writer *usecase.ResultWriter,
	m repository.Metrics,
	l *applogger.Logger,
	serial *usecase.SerialExecutor,
	pooled *usecase.PooledExecutor,
	cfg *config.Config,
) *usecase.Scanner {
	return usecase.NewScanner(
		market,
		barStore,
		refs,
		writer,
		m,
		repository.SystemClock{},
		l,
		serial,
		pooled,
		usecase.ScanConfig{
			Period:                repository.NormalizePeriod(cfg.Scan.Period),
			BatchSize:             cfg.Scan.BatchSize,
			Stage1PriceChangeMin:  cfg.Scan.Stage1PriceChangeMin,
			Stage1TurnoverMin:     cfg.Scan.Stage1TurnoverMin,
			Stage1VolumeRatioMin:  cfg.Scan.Stage1VolumeRatioMin,
			Stage2VolumeRatioMin:  cfg.Scan.Stage2VolumeRatioMin,
			Stage2ActivityMin:     cfg.Scan.Stage2ActivityMin,
			Stage2TurnoverMin:     cfg.Scan.Stage2TurnoverMin,
			Stage2RequiredDims:    cfg.Scan.Stage2RequiredDims,
			MultiprocessThreshold: cfg.Scan.MultiprocessThreshold,
			TopN:                  cfg.Scan.TopN,
			WindowOverride:        cfg.Scan.WindowBars,
		},
	)
}

// ProvideScanRequestHandler registers the handler for the scan-request topic.
func ProvideScanRequestHandler(scanner *usecase.Scanner, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.ScanRequestHandler {
	return usecase.NewScanRequestHandler(cfg.Kafka.RequestTopic, scanner, m, l)
}

// ProvideTickStream creates the live WebSocket stream.
func ProvideTickStream(cfg *config.Config) repository.TickStream {
	return stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideBarCollector creates the live bar collector behind the ingest
// pipeline.
func ProvideBarCollector(
	ts repository.TickStream,
	barStore *internalrepo.CHBarStore,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.BarCollector {
	builder := usecase.NewBarBuilder(barStore, m)
	var opts []mid.PipelineOption
	if cfg.Stream.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Stream.MaxRPS))
	}
	if cfg.Stream.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Stream.BufferSize))
	}
	pipe := mid.NewIngestPipeline(builder, m, opts...)
	return usecase.NewBarCollector(ts, builder, m, pipe, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	writer *usecase.ResultWriter,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.ScanRequestHandler,
	chClient *pkgch.Client,
	results repository.ResultStore,
) *server.App {
	if consumer == nil || cfg.Kafka.RequestTopic == "" {
		// No request topic configured: scans run via HTTP and the scheduler only.
		return server.New(cfg, l, scanner, writer, collector, nil, nil, chClient, results)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return server.New(cfg, l, scanner, writer, collector, consumer, kh, chClient, results)
}
