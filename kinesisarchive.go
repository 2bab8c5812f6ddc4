/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kinesisarchive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/archive"
	"github.com/suparena/kinesisarchive/cfg"
	"github.com/suparena/kinesisarchive/datastore"
	"github.com/suparena/kinesisarchive/datastore/ddb"
	"github.com/suparena/kinesisarchive/replay"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/stream"
)

// Archive bundles an engine with the clients it was built from.
type Archive struct {
	Engine   *replay.Engine
	Store    datastore.ArchiveStore
	Resolver archive.Resolver
	Writer   stream.Writer

	config    *cfg.Configuration
	closeOnce sync.Once
}

// Open builds the DynamoDB store, the archive resolver, the destination
// writer and the engine described by c.
func Open(ctx context.Context, c *cfg.Configuration) (*Archive, error) {
	awsCfg, err := ddb.LoadAWSConfig(ctx, c.AWS.AccessKey, c.AWS.SecretKey, c.AWS.Region)
	if err != nil {
		return nil, err
	}

	store := ddb.NewDynamodbArchiveStore(ddb.NewDynamoDBClient(awsCfg, c.AWS.DynamoEndpoint))

	var tags archive.TagClient
	if c.Archive.Resolver == cfg.ResolverTags {
		tags = stream.NewKinesisClient(awsCfg, c.AWS.KinesisEndpoint)
	}
	resolver, err := NewResolver(c, tags)
	if err != nil {
		return nil, err
	}

	writer, err := stream.NewWriter(ctx, string(c.Destination.Type), stream.Config{
		AWS:             awsCfg,
		KinesisEndpoint: c.AWS.KinesisEndpoint,
		Brokers:         c.Destination.Brokers,
		NatsURL:         c.Destination.NatsURL,
		BatchSize:       c.Destination.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s writer: %w", c.Destination.Type, err)
	}

	a := New(store, resolver, writer, c)
	log.Info().
		Str("region", awsCfg.Region).
		Str("resolver", string(c.Archive.Resolver)).
		Str("destination", string(c.Destination.Type)).
		Msg("Kinesis archive replay engine online")
	return a, nil
}

// New assembles an Archive from existing collaborators. Replay defaults are
// taken from c.
func New(store datastore.ArchiveStore, resolver archive.Resolver, writer stream.Writer, c *cfg.Configuration) *Archive {
	engine := replay.NewEngine(store, resolver, writer, replay.WithDefaultOptions(ReplayOptions(c)...))
	return &Archive{
		Engine:   engine,
		Store:    store,
		Resolver: resolver,
		Writer:   writer,
		config:   c,
	}
}

// NewResolver builds the resolver selected by c.Archive. tags is only used
// by the tags resolver.
func NewResolver(c *cfg.Configuration, tags archive.TagClient) (archive.Resolver, error) {
	var resolver archive.Resolver

	switch c.Archive.Resolver {
	case cfg.ResolverTags:
		if tags == nil {
			return nil, fmt.Errorf("tags resolver requires a Kinesis client")
		}
		resolver = archive.NewTagResolver(tags,
			archive.WithTagKeys(c.Archive.RecoveryModeTag, c.Archive.TableNameTag),
			archive.WithTableSuffix(c.Archive.TableSuffix),
		)
	case cfg.ResolverStatic:
		configs := make([]storagemodels.ArchiveStreamConfig, 0, len(c.Archive.Streams))
		for name, s := range c.Archive.Streams {
			mode, err := storagemodels.ParseRecoveryMode(s.RecoveryMode)
			if err != nil {
				return nil, fmt.Errorf("archive.streams.%s: %w", name, err)
			}
			table := s.TableName
			if table == "" {
				table = name + c.Archive.TableSuffix
			}
			configs = append(configs, storagemodels.ArchiveStreamConfig{StreamName: name, TableName: table, RecoveryMode: mode})
		}
		resolver = archive.NewStaticResolver(configs...)
	default:
		return nil, fmt.Errorf("unknown archive resolver %q", c.Archive.Resolver)
	}

	if c.Archive.CacheSize > 0 {
		resolver = archive.NewCachingResolver(resolver, c.Archive.CacheSize, time.Duration(c.Archive.CacheTTLSeconds)*time.Second)
	}
	return resolver, nil
}

// ReplayOptions converts the replay section of c into engine defaults
func ReplayOptions(c *cfg.Configuration) []storagemodels.ReplayOption {
	return []storagemodels.ReplayOption{
		storagemodels.WithThreads(c.Replay.Threads),
		storagemodels.WithBufferSize(c.Replay.BufferSize),
		storagemodels.WithFailFast(c.Replay.FailFast),
	}
}

// ReinjectOptions returns the configured reinjection settings for target
func (a *Archive) ReinjectOptions(target string) storagemodels.ReinjectOptions {
	return storagemodels.ReinjectOptions{
		TargetStream:      target,
		IncludeMetadata:   a.config.Replay.IncludeMetadata,
		MetadataSeparator: a.config.Replay.MetadataSeparator,
	}
}

// RecordLimit is the configured per-page limit
func (a *Archive) RecordLimit() int32 {
	return a.config.Replay.RecordLimit
}

// Close releases the destination writer
func (a *Archive) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.Writer != nil {
			err = a.Writer.Close()
		}
	})
	return err
}
