/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package stream

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

const DefaultKafkaBatchBytes = 1 << 20 // 1MB

func init() {
	RegisterWriter("kafka", func(ctx context.Context, config Config) (Writer, error) {
		return NewKafkaWriter(config.Brokers, config.BatchSize)
	})
}

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter publishes records to Kafka, using the stream name as topic
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// NewKafkaWriter creates a synchronous writer over brokers
func NewKafkaWriter(brokers []string, batchSize int) (*KafkaWriter, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka writer requires at least one broker address")
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // same key, same partition
		BatchSize:              batchSize,
		BatchBytes:             DefaultKafkaBatchBytes,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaWriter{writer: writer}, nil
}

func (k *KafkaWriter) Put(ctx context.Context, stream, partitionKey string, data []byte) error {
	msg := kafka.Message{
		Topic: stream,
		Key:   []byte(partitionKey),
		Value: data,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return nil
}

func (k *KafkaWriter) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
