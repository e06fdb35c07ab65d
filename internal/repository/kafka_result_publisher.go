package repository

import (
	"context"
	"fmt"

	"LureScan/internal/domain/models"
	"LureScan/internal/domain/repository"
	pkgkafka "LureScan/pkg/kafka"
)

// KafkaResultPublisher publishes ranked results and the pass summary.
type KafkaResultPublisher struct {
	producer     *pkgkafka.Producer
	resultTopic  string
	summaryTopic string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, resultTopic, summaryTopic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, resultTopic: resultTopic, summaryTopic: summaryTopic}
}

// PublishResults writes one message per result keyed by symbol, then a single
// summary envelope keyed by pass start time.
func (p *KafkaResultPublisher) PublishResults(ctx context.Context, results []models.ScanResult, summary models.ScanSummary) error {
	if len(results) > 0 {
		msgs := make([]pkgkafka.Message, len(results))
		for i, r := range results {
			msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: r}
		}
		if err := p.producer.PublishBatch(ctx, p.resultTopic, msgs); err != nil {
			return fmt.Errorf("publish results: %w", err)
		}
	}

	if p.summaryTopic != "" {
		key := []byte(summary.StartedAt.Format("20060102T150405"))
		if err := p.producer.Publish(ctx, p.summaryTopic, key, summary); err != nil {
			return fmt.Errorf("publish summary: %w", err)
		}
	}
	return nil
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
