package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	drepo "LureScan/internal/domain/repository"
	"LureScan/internal/handler/api"
	"LureScan/internal/service/scheduler"
	"LureScan/internal/usecase"
	pkgch "LureScan/pkg/clickhouse"
	"LureScan/pkg/config"
	xhttp "LureScan/pkg/http"
	pkgkafka "LureScan/pkg/kafka"
	applogger "LureScan/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	scanner    *usecase.Scanner
	writer     *usecase.ResultWriter
	collector  *usecase.BarCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	results    drepo.ResultStore
	sched      *scheduler.Scheduler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scanner *usecase.Scanner,
	writer *usecase.ResultWriter,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	results drepo.ResultStore,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scanner:   scanner,
		writer:    writer,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		results:   results,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	handler := api.NewScanEchoHandler(l, a.scanner, a.results, a.collector)
	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the live bar collector when the stream is configured.
	if a.collector != nil && a.cfg.Stream.Enabled {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("bar collector error", applogger.Error(err))
			}
		}()
		l.Info("bar collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	// Start scan-request consumer if configured.
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Scheduled scans during trading hours.
	if a.cfg.Scan.Schedule != "" {
		a.sched = scheduler.New(l)
		err := a.sched.AddJob(a.cfg.Scan.Schedule, "scan", func(jctx context.Context) {
			if _, _, err := a.scanner.Scan(jctx, nil, 0); err != nil {
				l.Error("scheduled scan failed", applogger.Error(err))
			}
		})
		if err != nil {
			l.Error("scheduler setup failed", applogger.Error(err))
		} else {
			a.sched.Start()
			l.Info("scan scheduler started", applogger.String("spec", a.cfg.Scan.Schedule))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.sched != nil {
		if err := a.sched.Stop(shutdownCtx); err != nil {
			l.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	if a.collector != nil && a.cfg.Stream.Enabled {
		if err := a.collector.Shutdown(shutdownCtx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close result sinks (publisher/storage).
	if a.writer != nil {
		a.writer.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
