/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/suparena/kinesisarchive/storagemodels"
)

// ResolverType selects how archive configuration is looked up for a stream
type ResolverType string

const (
	ResolverTags   ResolverType = "tags"   // Kinesis stream tags
	ResolverStatic ResolverType = "static" // archive.streams section of this file
)

// DestinationType selects the writer used for reinjection
type DestinationType string

const (
	DestinationKinesis DestinationType = "kinesis"
	DestinationKafka   DestinationType = "kafka"
	DestinationNats    DestinationType = "nats"
	DestinationMemory  DestinationType = "memory"
)

// AWSConfiguration holds credentials and endpoints for DynamoDB and Kinesis
type AWSConfiguration struct {
	Region          string `toml:"region" yaml:"region" env:"REGION"`
	AccessKey       string `toml:"access_key" yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey       string `toml:"secret" yaml:"secret" env:"SECRET_KEY"`
	DynamoEndpoint  string `toml:"dynamodb_endpoint" yaml:"dynamodb_endpoint" env:"DYNAMODB_ENDPOINT"`
	KinesisEndpoint string `toml:"kinesis_endpoint" yaml:"kinesis_endpoint" env:"KINESIS_ENDPOINT"`
}

// StreamConfiguration is a statically configured archive for one stream
type StreamConfiguration struct {
	TableName    string `toml:"table" yaml:"table"`
	RecoveryMode string `toml:"recovery_mode" yaml:"recovery_mode"`
}

// ArchiveConfiguration controls archive configuration resolution
type ArchiveConfiguration struct {
	Resolver        ResolverType                   `toml:"resolver" yaml:"resolver" env:"RESOLVER"`
	RecoveryModeTag string                         `toml:"recovery_mode_tag" yaml:"recovery_mode_tag" env:"RECOVERY_MODE_TAG"`
	TableNameTag    string                         `toml:"table_name_tag" yaml:"table_name_tag" env:"TABLE_NAME_TAG"`
	TableSuffix     string                         `toml:"table_suffix" yaml:"table_suffix" env:"TABLE_SUFFIX"`
	CacheSize       int                            `toml:"cache_size" yaml:"cache_size" env:"CACHE_SIZE"`
	CacheTTLSeconds int                            `toml:"cache_ttl_seconds" yaml:"cache_ttl_seconds" env:"CACHE_TTL_SECONDS"`
	Streams         map[string]StreamConfiguration `toml:"streams" yaml:"streams"`
}

// ReplayConfiguration holds defaults for replay operations
type ReplayConfiguration struct {
	Threads           int    `toml:"threads" yaml:"threads" env:"THREADS"`
	BufferSize        int    `toml:"buffer_size" yaml:"buffer_size" env:"BUFFER_SIZE"`
	FailFast          bool   `toml:"fail_fast" yaml:"fail_fast" env:"FAIL_FAST"`
	RecordLimit       int32  `toml:"record_limit" yaml:"record_limit" env:"RECORD_LIMIT"`
	IncludeMetadata   bool   `toml:"include_metadata" yaml:"include_metadata" env:"INCLUDE_METADATA"`
	MetadataSeparator string `toml:"metadata_separator" yaml:"metadata_separator" env:"METADATA_SEPARATOR"`
}

// DestinationConfiguration selects and configures the reinjection writer
type DestinationConfiguration struct {
	Type      DestinationType `toml:"type" yaml:"type" env:"TYPE"`
	Brokers   []string        `toml:"brokers" yaml:"brokers" env:"BROKERS" envSeparator:","`
	NatsURL   string          `toml:"nats_url" yaml:"nats_url" env:"NATS_URL"`
	BatchSize int             `toml:"batch_size" yaml:"batch_size" env:"BATCH_SIZE"`
}

// LoggingConfiguration controls log output
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose" yaml:"verbose" env:"VERBOSE"`
	Format  string `toml:"format" yaml:"format" env:"FORMAT"` // console or json
}

// PrometheusConfiguration controls the metrics endpoint
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	Address string `toml:"address" yaml:"address" env:"ADDRESS"`
}

// Configuration is the root configuration
type Configuration struct {
	AWS         AWSConfiguration         `toml:"aws" yaml:"aws" envPrefix:"AWS_"`
	Archive     ArchiveConfiguration     `toml:"archive" yaml:"archive" envPrefix:"ARCHIVE_"`
	Replay      ReplayConfiguration      `toml:"replay" yaml:"replay" envPrefix:"REPLAY_"`
	Destination DestinationConfiguration `toml:"destination" yaml:"destination" envPrefix:"DESTINATION_"`
	Logging     LoggingConfiguration     `toml:"logging" yaml:"logging" envPrefix:"LOGGING_"`
	Prometheus  PrometheusConfiguration  `toml:"prometheus" yaml:"prometheus" envPrefix:"PROMETHEUS_"`
}

// EnvPrefix is prepended to every environment override
const EnvPrefix = "KINESISARCHIVE_"

// Config is the process configuration
var Config = Default()

// Default returns the built-in configuration
func Default() *Configuration {
	return &Configuration{
		AWS: AWSConfiguration{
			Region: "us-east-1",
		},
		Archive: ArchiveConfiguration{
			Resolver:        ResolverTags,
			RecoveryModeTag: "archiveRecoveryMode",
			TableNameTag:    "archiveTableName",
			TableSuffix:     "-archive",
			CacheSize:       128,
			CacheTTLSeconds: 300,
		},
		Replay: ReplayConfiguration{
			Threads:           1,
			BufferSize:        100,
			MetadataSeparator: "|",
		},
		Destination: DestinationConfiguration{
			Type:      DestinationKinesis,
			BatchSize: 1,
		},
		Logging: LoggingConfiguration{
			Format: "console",
		},
		Prometheus: PrometheusConfiguration{
			Address: ":9090",
		},
	}
}

// Load reads configPath into Config, then applies .env and environment
// overrides. A missing file leaves the defaults in place.
func Load(configPath string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if err := decodeFile(configPath, Config); err != nil {
				return err
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	if err := env.ParseWithOptions(Config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func decodeFile(configPath string, target *Configuration) error {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	case ".toml", "":
		if _, err := toml.DecodeFile(configPath, target); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(configPath))
	}
	return nil
}

// Validate checks Config for values the engine cannot run with
func Validate() error {
	switch Config.Archive.Resolver {
	case ResolverTags:
		if Config.Archive.RecoveryModeTag == "" {
			return fmt.Errorf("archive.recovery_mode_tag must be set for the tags resolver")
		}
	case ResolverStatic:
		if len(Config.Archive.Streams) == 0 {
			return fmt.Errorf("archive.streams must list at least one stream for the static resolver")
		}
		for name, s := range Config.Archive.Streams {
			if _, err := storagemodels.ParseRecoveryMode(s.RecoveryMode); err != nil {
				return fmt.Errorf("archive.streams.%s: %w", name, err)
			}
		}
	default:
		return fmt.Errorf("unknown archive resolver %q", Config.Archive.Resolver)
	}

	if Config.Archive.CacheSize < 0 {
		return fmt.Errorf("archive.cache_size must be >= 0")
	}
	if Config.Replay.Threads < 1 {
		return fmt.Errorf("replay.threads must be >= 1")
	}
	if Config.Replay.BufferSize < 1 {
		return fmt.Errorf("replay.buffer_size must be >= 1")
	}
	if Config.Replay.RecordLimit < 0 {
		return fmt.Errorf("replay.record_limit must be >= 0")
	}

	switch Config.Destination.Type {
	case DestinationKinesis, DestinationMemory:
	case DestinationKafka:
		if len(Config.Destination.Brokers) == 0 {
			return fmt.Errorf("destination.brokers is required for kafka")
		}
	case DestinationNats:
		if Config.Destination.NatsURL == "" {
			return fmt.Errorf("destination.nats_url is required for nats")
		}
	default:
		return fmt.Errorf("unknown destination type %q", Config.Destination.Type)
	}

	if Config.Logging.Format != "console" && Config.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", Config.Logging.Format)
	}
	return nil
}
