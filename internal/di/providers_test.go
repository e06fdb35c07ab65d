package di

import (
	"testing"

	"LureScan/pkg/config"
)

func TestProvideKafkaConsumerDisabledWithoutRequestTopic(t *testing.T) {
	cfg := &config.Config{}
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	if consumer != nil {
		t.Fatal("consumer built with no request topic to consume")
	}
}
