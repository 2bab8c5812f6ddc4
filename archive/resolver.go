/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package archive

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	kinesistypes "github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
)

const (
	DefaultRecoveryModeTag = "archiveRecoveryMode"
	DefaultTableNameTag    = "archiveTableName"
	DefaultTableSuffix     = "-archive"
)

// Resolver looks up the archive configuration of a stream
type Resolver interface {
	Resolve(ctx context.Context, stream string) (storagemodels.ArchiveStreamConfig, error)
}

// TagClient is the subset of the Kinesis API used by TagResolver
type TagClient interface {
	ListTagsForStream(ctx context.Context, params *kinesis.ListTagsForStreamInput, optFns ...func(*kinesis.Options)) (*kinesis.ListTagsForStreamOutput, error)
}

// TagResolver reads archive configuration from Kinesis stream tags
type TagResolver struct {
	client          TagClient
	recoveryModeTag string
	tableNameTag    string
	tableSuffix     string
}

// TagResolverOption configures a TagResolver
type TagResolverOption func(*TagResolver)

// WithTagKeys overrides the tag names holding the recovery mode and table name
func WithTagKeys(recoveryModeTag, tableNameTag string) TagResolverOption {
	return func(r *TagResolver) {
		if recoveryModeTag != "" {
			r.recoveryModeTag = recoveryModeTag
		}
		if tableNameTag != "" {
			r.tableNameTag = tableNameTag
		}
	}
}

// WithTableSuffix sets the suffix used when no table name tag is present
func WithTableSuffix(suffix string) TagResolverOption {
	return func(r *TagResolver) {
		r.tableSuffix = suffix
	}
}

// NewTagResolver creates a resolver over client
func NewTagResolver(client TagClient, opts ...TagResolverOption) *TagResolver {
	r := &TagResolver{
		client:          client,
		recoveryModeTag: DefaultRecoveryModeTag,
		tableNameTag:    DefaultTableNameTag,
		tableSuffix:     DefaultTableSuffix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve reads every tag of stream. The recovery mode tag is required; the
// table name defaults to the stream name plus the table suffix.
func (r *TagResolver) Resolve(ctx context.Context, stream string) (storagemodels.ArchiveStreamConfig, error) {
	var cfg storagemodels.ArchiveStreamConfig
	if stream == "" {
		return cfg, errors.NewConfigurationError(stream, "stream name is required", nil)
	}

	tags := make(map[string]string)
	input := &kinesis.ListTagsForStreamInput{StreamName: aws.String(stream)}
	for {
		out, err := r.client.ListTagsForStream(ctx, input)
		if err != nil {
			var notFound *kinesistypes.ResourceNotFoundException
			if stderrors.As(err, &notFound) {
				return cfg, errors.NewConfigurationError(stream, "stream not found", err)
			}
			return cfg, errors.NewConfigurationError(stream, "unable to read stream tags", err)
		}
		for _, tag := range out.Tags {
			tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
		if !aws.ToBool(out.HasMoreTags) || len(out.Tags) == 0 {
			break
		}
		input.ExclusiveStartTagKey = out.Tags[len(out.Tags)-1].Key
	}

	modeTag, ok := tags[r.recoveryModeTag]
	if !ok {
		return cfg, errors.NewConfigurationError(stream, fmt.Sprintf("stream is not archived (no %s tag)", r.recoveryModeTag), nil)
	}
	mode, err := storagemodels.ParseRecoveryMode(modeTag)
	if err != nil {
		return cfg, errors.NewConfigurationError(stream, "invalid recovery mode tag", err)
	}

	table := strings.TrimSpace(tags[r.tableNameTag])
	if table == "" {
		table = stream + r.tableSuffix
	}

	cfg = storagemodels.ArchiveStreamConfig{
		StreamName:   stream,
		TableName:    table,
		RecoveryMode: mode,
	}
	log.Debug().
		Str("stream", stream).
		Str("table", table).
		Str("recovery_mode", string(mode)).
		Msg("Resolved archive configuration from stream tags")
	return cfg, nil
}

// StaticResolver serves a fixed set of stream configurations
type StaticResolver struct {
	streams map[string]storagemodels.ArchiveStreamConfig
}

// NewStaticResolver creates a resolver over configs, keyed by StreamName
func NewStaticResolver(configs ...storagemodels.ArchiveStreamConfig) *StaticResolver {
	streams := make(map[string]storagemodels.ArchiveStreamConfig, len(configs))
	for _, c := range configs {
		streams[c.StreamName] = c
	}
	return &StaticResolver{streams: streams}
}

func (r *StaticResolver) Resolve(_ context.Context, stream string) (storagemodels.ArchiveStreamConfig, error) {
	c, ok := r.streams[stream]
	if !ok {
		return c, errors.NewConfigurationError(stream, "no archive configured", nil)
	}
	return c, nil
}

// CachingResolver memoizes successful lookups for ttl
type CachingResolver struct {
	next  Resolver
	cache *expirable.LRU[string, storagemodels.ArchiveStreamConfig]
}

// NewCachingResolver wraps next with an LRU of size entries
func NewCachingResolver(next Resolver, size int, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: expirable.NewLRU[string, storagemodels.ArchiveStreamConfig](size, nil, ttl),
	}
}

func (r *CachingResolver) Resolve(ctx context.Context, stream string) (storagemodels.ArchiveStreamConfig, error) {
	if c, ok := r.cache.Get(stream); ok {
		return c, nil
	}
	c, err := r.next.Resolve(ctx, stream)
	if err != nil {
		return c, err
	}
	r.cache.Add(stream, c)
	return c, nil
}

// OperationCache memoizes lookups for the lifetime of one replay operation.
// Failures are not cached.
type OperationCache struct {
	next    Resolver
	configs *xsync.MapOf[string, storagemodels.ArchiveStreamConfig]
}

// NewOperationCache wraps next for a single operation
func NewOperationCache(next Resolver) *OperationCache {
	return &OperationCache{
		next:    next,
		configs: xsync.NewMapOf[string, storagemodels.ArchiveStreamConfig](),
	}
}

func (c *OperationCache) Resolve(ctx context.Context, stream string) (storagemodels.ArchiveStreamConfig, error) {
	if cfg, ok := c.configs.Load(stream); ok {
		return cfg, nil
	}
	cfg, err := c.next.Resolve(ctx, stream)
	if err != nil {
		return cfg, err
	}
	actual, _ := c.configs.LoadOrStore(stream, cfg)
	return actual, nil
}

// Len returns the number of streams resolved so far
func (c *OperationCache) Len() int {
	return c.configs.Size()
}
