package usecase

import (
	"context"
	"encoding/json"
	"time"

	drepo "LureScan/internal/domain/repository"
	"LureScan/pkg/kafka"
	"LureScan/pkg/logger"
)

// ScanRequestHandler consumes scan requests from Kafka and runs a pass per
// message.
type ScanRequestHandler struct {
	topic   string
	scanner *Scanner
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewScanRequestHandler(topic string, scanner *Scanner, metrics drepo.Metrics, log *logger.Logger) *ScanRequestHandler {
	return &ScanRequestHandler{topic: topic, scanner: scanner, metrics: metrics, log: log}
}

func (h *ScanRequestHandler) Topic() string { return h.topic }

// incoming message schema: {universe, top_n}
func (h *ScanRequestHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Universe []string `json:"universe"`
		TopN     int      `json:"top_n"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	start := time.Now()
	ranked, _, err := h.scanner.Scan(ctx, m.Universe, m.TopN)
	h.metrics.RecordLatency("requested_scan_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_scan")
		return err
	}

	h.log.Info("requested scan complete",
		logger.Int("universe", len(m.Universe)),
		logger.Int("ranked", len(ranked)))
	return nil
}

var _ kafka.MessageHandler = (*ScanRequestHandler)(nil)
