/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive"
	"github.com/suparena/kinesisarchive/cfg"
	"github.com/suparena/kinesisarchive/pool"
	"github.com/suparena/kinesisarchive/replay"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/telemetry"
)

const usage = `Usage: archivereplay <command> [flags]

Commands:
  scan            scan an archive table and print or save the records
  query           query one partition key and print or save the records
  reinject-scan   scan an archive table and write the records back to a stream
  reinject-query  query one partition key and write the records back to a stream
  version         show version information

Run 'archivereplay <command> -h' for the flags of a command.
`

// commonFlags are shared by every replay command
type commonFlags struct {
	configPath string
	verbose    bool
	streamName string
	limit      int
	threads    int
	failFast   bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to a YAML or TOML configuration file")
	fs.BoolVar(&c.verbose, "verbose", false, "Enable debug logging")
	fs.StringVar(&c.streamName, "stream", "", "Source stream name (required)")
	fs.IntVar(&c.limit, "limit", 0, "Records per page request (0 uses the configured value)")
	fs.IntVar(&c.threads, "threads", 0, "Concurrent handler slots (0 uses the configured value)")
	fs.BoolVar(&c.failFast, "fail-fast", false, "Stop on the first record that cannot be handled")
}

type outputFlags struct {
	path     string
	format   string
	compress bool
}

func (o *outputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.path, "output", "", "Write records to this file instead of stdout")
	fs.StringVar(&o.format, "format", "raw", "Output file format: raw, json or msgpack")
	fs.BoolVar(&o.compress, "compress", false, "zstd compress the output file")
}

type reinjectFlags struct {
	target          string
	includeMetadata bool
	separator       string
}

func (r *reinjectFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.target, "target", "", "Destination stream (defaults to the source stream)")
	fs.BoolVar(&r.includeMetadata, "include-metadata", false, "Prefix each payload with its original metadata")
	fs.StringVar(&r.separator, "separator", "", "Metadata separator (defaults to the configured value)")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version", "-version", "--version", "-v":
		info := kinesisarchive.GetVersionInfo()
		fmt.Printf("archivereplay version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		return
	case "scan":
		err = runScan(ctx, args, false)
	case "reinject-scan":
		err = runScan(ctx, args, true)
	case "query":
		err = runQuery(ctx, args, false)
	case "reinject-query":
		err = runQuery(ctx, args, true)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Msg("Replay failed")
		os.Exit(1)
	}
}

func runScan(ctx context.Context, args []string, reinject bool) error {
	name := "scan"
	if reinject {
		name = "reinject-scan"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var common commonFlags
	var output outputFlags
	var rf reinjectFlags
	common.register(fs)
	if reinject {
		rf.register(fs)
	} else {
		output.register(fs)
	}
	sequenceStart := fs.String("sequence-start", "", "Lower bound on the sequence number")
	lastUpdateStart := fs.String("last-update-start", "", "Lower bound on the last update time (RFC3339)")
	arrivalStart := fs.String("arrival-start", "", "Lower bound on the approximate arrival timestamp")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, opts, err := setup(ctx, &common)
	if err != nil {
		return err
	}
	defer a.Close()

	req := storagemodels.ScanRequest{
		StreamName:              common.streamName,
		SequenceStart:           *sequenceStart,
		LastUpdateStart:         *lastUpdateStart,
		ApproximateArrivalStart: *arrivalStart,
		RecordLimit:             recordLimit(a, common.limit),
	}

	var outcome *storagemodels.Outcome
	if reinject {
		outcome, err = a.Engine.ScanToReinject(ctx, req, reinjectOptions(a, rf), opts...)
	} else {
		err = withHandler(output, func(h pool.Handler) error {
			outcome, err = a.Engine.ScanToSink(ctx, req, h, opts...)
			return err
		})
	}
	report(outcome)
	return err
}

func runQuery(ctx context.Context, args []string, reinject bool) error {
	name := "query"
	if reinject {
		name = "reinject-query"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var common commonFlags
	var output outputFlags
	var rf reinjectFlags
	common.register(fs)
	if reinject {
		rf.register(fs)
	} else {
		output.register(fs)
	}
	partitionKey := fs.String("partition-key", "", "Partition key to query (required)")
	sequenceStart := fs.String("sequence-start", "", "First sequence number")
	sequenceEnd := fs.String("sequence-end", "", "Last sequence number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, opts, err := setup(ctx, &common)
	if err != nil {
		return err
	}
	defer a.Close()

	req := storagemodels.QueryRequest{
		StreamName:    common.streamName,
		PartitionKey:  *partitionKey,
		SequenceStart: *sequenceStart,
		SequenceEnd:   *sequenceEnd,
		RecordLimit:   recordLimit(a, common.limit),
	}

	var outcome *storagemodels.Outcome
	if reinject {
		outcome, err = a.Engine.QueryToReinject(ctx, req, reinjectOptions(a, rf), opts...)
	} else {
		err = withHandler(output, func(h pool.Handler) error {
			outcome, err = a.Engine.QueryToSink(ctx, req, h, opts...)
			return err
		})
	}
	report(outcome)
	return err
}

// setup loads configuration, configures logging and metrics and opens the archive
func setup(ctx context.Context, common *commonFlags) (*kinesisarchive.Archive, []storagemodels.ReplayOption, error) {
	if err := cfg.Load(common.configPath); err != nil {
		return nil, nil, err
	}
	if common.verbose {
		cfg.Config.Logging.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging()

	if common.streamName == "" {
		return nil, nil, fmt.Errorf("-stream is required")
	}

	telemetry.InitializeTelemetry()
	if handler := telemetry.GetMetricsHandler(); handler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		go func() {
			if err := http.ListenAndServe(cfg.Config.Prometheus.Address, mux); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	a, err := kinesisarchive.Open(ctx, cfg.Config)
	if err != nil {
		return nil, nil, err
	}

	var opts []storagemodels.ReplayOption
	if common.threads > 0 {
		opts = append(opts, storagemodels.WithThreads(common.threads))
	}
	if common.failFast {
		opts = append(opts, storagemodels.WithFailFast(true))
	}
	return a, opts, nil
}

func setupLogging() {
	var writer io.Writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stderr
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}
}

// withHandler runs fn with a stdout handler, or a file handler that is
// closed once fn returns
func withHandler(output outputFlags, fn func(pool.Handler) error) error {
	if output.path == "" {
		return fn(replay.LineHandler(os.Stdout))
	}

	format, err := replay.ParseFileFormat(output.format)
	if err != nil {
		return err
	}
	fh, err := replay.NewFileHandler(output.path, format, output.compress)
	if err != nil {
		return err
	}
	runErr := fn(fh.Handle)
	if err := fh.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func reinjectOptions(a *kinesisarchive.Archive, rf reinjectFlags) storagemodels.ReinjectOptions {
	opts := a.ReinjectOptions(rf.target)
	if rf.includeMetadata {
		opts.IncludeMetadata = true
	}
	if rf.separator != "" {
		opts.MetadataSeparator = rf.separator
	}
	return opts
}

func recordLimit(a *kinesisarchive.Archive, flagValue int) int32 {
	if flagValue > 0 {
		return int32(flagValue)
	}
	return a.RecordLimit()
}

func report(outcome *storagemodels.Outcome) {
	if outcome == nil {
		return
	}
	if outcome.HandlerErrors > 0 {
		log.Warn().
			Int64("handler_errors", outcome.HandlerErrors).
			Msg("Some records could not be handled; see the errors logged above")
	}
}
