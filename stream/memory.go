/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package stream

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

func init() {
	RegisterWriter("memory", func(ctx context.Context, config Config) (Writer, error) {
		return NewMemoryWriter(), nil
	})
}

// Message is one record put to a MemoryWriter
type Message struct {
	Stream       string
	PartitionKey string
	Data         []byte
}

// MemoryWriter keeps every put in memory, per stream. It is used by tests and
// by dry runs of the CLI.
type MemoryWriter struct {
	messages *xsync.MapOf[string, []Message]
	// FailOn, if set, is consulted before each put; a non-nil error rejects the message.
	FailOn func(Message) error
}

// NewMemoryWriter creates an empty MemoryWriter
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{messages: xsync.NewMapOf[string, []Message]()}
}

func (m *MemoryWriter) Put(ctx context.Context, stream, partitionKey string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Message{Stream: stream, PartitionKey: partitionKey, Data: append([]byte(nil), data...)}
	if m.FailOn != nil {
		if err := m.FailOn(msg); err != nil {
			return err
		}
	}
	m.messages.Compute(stream, func(old []Message, loaded bool) ([]Message, bool) {
		return append(old, msg), false
	})
	return nil
}

// Messages returns the messages put to stream, in arrival order
func (m *MemoryWriter) Messages(stream string) []Message {
	msgs, _ := m.messages.Load(stream)
	return append([]Message(nil), msgs...)
}

// Count returns the number of messages across all streams
func (m *MemoryWriter) Count() int {
	total := 0
	m.messages.Range(func(_ string, msgs []Message) bool {
		total += len(msgs)
		return true
	})
	return total
}

func (m *MemoryWriter) Close() error {
	return nil
}
