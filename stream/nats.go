/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/puzpuzpuz/xsync/v3"
)

// PartitionKeyHeader carries the original partition key on NATS messages
const PartitionKeyHeader = "key"

func init() {
	RegisterWriter("nats", func(ctx context.Context, config Config) (Writer, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("nats writer requires nats_url")
		}
		return NewNatsWriter(config.NatsURL)
	})
}

type jetStreamPublisher interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NatsWriter publishes records to NATS JetStream, using the stream name as subject
type NatsWriter struct {
	nc      *nats.Conn
	js      jetStreamPublisher
	ensured *xsync.MapOf[string, struct{}]
}

// NewNatsWriter connects to url
func NewNatsWriter(url string) (*NatsWriter, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return newNatsWriter(nc, js), nil
}

func newNatsWriter(nc *nats.Conn, js jetStreamPublisher) *NatsWriter {
	return &NatsWriter{nc: nc, js: js, ensured: xsync.NewMapOf[string, struct{}]()}
}

func (n *NatsWriter) Put(ctx context.Context, stream, partitionKey string, data []byte) error {
	if _, ok := n.ensured.Load(stream); !ok {
		name := sanitizeStreamName(stream)
		_, err := n.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      name,
			Subjects:  []string{stream},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to ensure stream %s: %w", name, err)
		}
		n.ensured.Store(stream, struct{}{})
	}

	msg := &nats.Msg{
		Subject: stream,
		Data:    data,
		Header:  nats.Header{PartitionKeyHeader: []string{partitionKey}},
	}
	if _, err := n.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return nil
}

func (n *NatsWriter) Close() error {
	if n.nc != nil {
		n.nc.Close()
	}
	return nil
}

// JetStream stream names cannot contain '.', '*', '>' or whitespace.
func sanitizeStreamName(subject string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, subject)
}
