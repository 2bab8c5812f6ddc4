/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package stream

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Writer puts records onto a destination stream. Implementations must be
// safe for concurrent use; one writer is shared by every worker of a pool.
type Writer interface {
	Put(ctx context.Context, stream, partitionKey string, data []byte) error
	Close() error
}

// Config carries everything a factory may need to build a writer
type Config struct {
	AWS             aws.Config
	KinesisEndpoint string
	Brokers         []string
	NatsURL         string
	BatchSize       int
}

// WriterFactory creates a Writer from a configuration
type WriterFactory func(ctx context.Context, config Config) (Writer, error)

var (
	writerFactories = make(map[string]WriterFactory)
	factoryMu       sync.RWMutex
)

// RegisterWriter registers a factory for a destination type. Registering the
// same type twice panics.
func RegisterWriter(writerType string, factory WriterFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if _, exists := writerFactories[writerType]; exists {
		panic(fmt.Sprintf("stream registry: writer type %q already registered", writerType))
	}
	writerFactories[writerType] = factory
}

// NewWriter creates a writer of the registered type
func NewWriter(ctx context.Context, writerType string, config Config) (Writer, error) {
	factoryMu.RLock()
	factory, exists := writerFactories[writerType]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown destination type: %s", writerType)
	}
	return factory(ctx, config)
}

// Types lists the registered destination types
func Types() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	types := make([]string, 0, len(writerFactories))
	for t := range writerFactories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
