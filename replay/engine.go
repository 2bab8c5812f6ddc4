/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jizhuozhi/go-future"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/archive"
	"github.com/suparena/kinesisarchive/datastore"
	"github.com/suparena/kinesisarchive/datastore/ddb"
	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/pool"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/stream"
	"github.com/suparena/kinesisarchive/telemetry"
)

// Engine replays archived records. The store, resolver and writer are shared
// by every operation issued through one engine.
type Engine struct {
	store    datastore.ArchiveStore
	resolver archive.Resolver
	writer   stream.Writer
	schema   ddb.TableSchema
	defaults []storagemodels.ReplayOption
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithTableSchema overrides the archive table attribute names
func WithTableSchema(schema ddb.TableSchema) EngineOption {
	return func(e *Engine) {
		e.schema = schema
	}
}

// WithDefaultOptions sets replay options applied before per-call options
func WithDefaultOptions(opts ...storagemodels.ReplayOption) EngineOption {
	return func(e *Engine) {
		e.defaults = append(e.defaults, opts...)
	}
}

// NewEngine creates an engine. writer may be nil when no reinjection is done.
func NewEngine(store datastore.ArchiveStore, resolver archive.Resolver, writer stream.Writer, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		resolver: resolver,
		writer:   writer,
		schema:   ddb.DefaultTableSchema,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) options(opts []storagemodels.ReplayOption) storagemodels.ReplayOptions {
	all := make([]storagemodels.ReplayOption, 0, len(e.defaults)+len(opts))
	all = append(all, e.defaults...)
	all = append(all, opts...)
	return storagemodels.ApplyReplayOptions(all...)
}

// Scan drives a filtered table scan into sink and returns immediately. done
// is called exactly once, when no more items will be pushed; items may still
// be in flight inside sink at that point.
func (e *Engine) Scan(ctx context.Context, req storagemodels.ScanRequest, sink RecordSink, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if sink == nil {
		done(errors.NewProtocolMisuseError("scan requires a record sink"))
		return
	}

	opts := e.options(nil)
	go func() {
		_, err := e.driveScan(ctx, archive.NewOperationCache(e.resolver), req, sink, opts)
		done(err)
	}()
}

// Query drives a partition query or point get into sink. It has the same
// completion contract as Scan.
func (e *Engine) Query(ctx context.Context, req storagemodels.QueryRequest, sink RecordSink, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	if sink == nil {
		done(errors.NewProtocolMisuseError("query requires a record sink"))
		return
	}

	opts := e.options(nil)
	go func() {
		_, err := e.driveQuery(ctx, archive.NewOperationCache(e.resolver), req, sink, opts)
		done(err)
	}()
}

// ScanToSink scans the archive of req.StreamName and hands every record to
// handler. It returns once every record has been handled.
//
// Handler errors are counted in the outcome but do not fail the operation
// unless WithFailFast is given.
func (e *Engine) ScanToSink(ctx context.Context, req storagemodels.ScanRequest, handler pool.Handler, opts ...storagemodels.ReplayOption) (*storagemodels.Outcome, error) {
	if handler == nil {
		return nil, errors.NewProtocolMisuseError("scan requires a record handler")
	}
	cache := archive.NewOperationCache(e.resolver)
	return e.run(ctx, "scan", req.StreamName, handler, func(ctx context.Context, sink RecordSink, o storagemodels.ReplayOptions) (driveResult, error) {
		return e.driveScan(ctx, cache, req, sink, o)
	}, e.options(opts))
}

// QueryToSink queries one partition of the archive and hands every record to handler.
func (e *Engine) QueryToSink(ctx context.Context, req storagemodels.QueryRequest, handler pool.Handler, opts ...storagemodels.ReplayOption) (*storagemodels.Outcome, error) {
	if handler == nil {
		return nil, errors.NewProtocolMisuseError("query requires a record handler")
	}
	cache := archive.NewOperationCache(e.resolver)
	return e.run(ctx, "query", req.StreamName, handler, func(ctx context.Context, sink RecordSink, o storagemodels.ReplayOptions) (driveResult, error) {
		return e.driveQuery(ctx, cache, req, sink, o)
	}, e.options(opts))
}

// ScanToReinject scans the archive and writes every record back to a stream.
func (e *Engine) ScanToReinject(ctx context.Context, req storagemodels.ScanRequest, reinject storagemodels.ReinjectOptions, opts ...storagemodels.ReplayOption) (*storagemodels.Outcome, error) {
	handler, err := e.reinjectHandler(req.StreamName, reinject)
	if err != nil {
		return nil, err
	}
	return e.ScanToSink(ctx, req, handler, opts...)
}

// QueryToReinject queries one partition and writes every record back to a stream.
func (e *Engine) QueryToReinject(ctx context.Context, req storagemodels.QueryRequest, reinject storagemodels.ReinjectOptions, opts ...storagemodels.ReplayOption) (*storagemodels.Outcome, error) {
	handler, err := e.reinjectHandler(req.StreamName, reinject)
	if err != nil {
		return nil, err
	}
	return e.QueryToSink(ctx, req, handler, opts...)
}

// ScanToConsole prints every payload to stdout with a single worker.
func (e *Engine) ScanToConsole(ctx context.Context, req storagemodels.ScanRequest) (*storagemodels.Outcome, error) {
	return e.ScanToWriter(ctx, req, os.Stdout, 1)
}

// ScanToWriter prints every payload as a line on w.
func (e *Engine) ScanToWriter(ctx context.Context, req storagemodels.ScanRequest, w io.Writer, threads int) (*storagemodels.Outcome, error) {
	return e.ScanToSink(ctx, req, LineHandler(w), storagemodels.WithThreads(threads))
}

// QueryToConsole prints every payload of one partition to stdout with a single worker.
func (e *Engine) QueryToConsole(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.Outcome, error) {
	return e.QueryToWriter(ctx, req, os.Stdout, 1)
}

// QueryToWriter prints every payload of one partition as a line on w.
func (e *Engine) QueryToWriter(ctx context.Context, req storagemodels.QueryRequest, w io.Writer, threads int) (*storagemodels.Outcome, error) {
	return e.QueryToSink(ctx, req, LineHandler(w), storagemodels.WithThreads(threads))
}

// Submit runs op in the background and returns a future of its outcome.
//
//	f := replay.Submit(ctx, func(ctx context.Context) (*storagemodels.Outcome, error) {
//	    return engine.ScanToReinject(ctx, req, reinject)
//	})
//	outcome, err := f.Get()
func Submit(ctx context.Context, op func(context.Context) (*storagemodels.Outcome, error)) *future.Future[*storagemodels.Outcome] {
	p := future.NewPromise[*storagemodels.Outcome]()
	go func() {
		p.Set(op(ctx))
	}()
	return p.Future()
}

func (e *Engine) reinjectHandler(source string, reinject storagemodels.ReinjectOptions) (pool.Handler, error) {
	if e.writer == nil {
		return nil, errors.NewProtocolMisuseError("reinjection requires a destination writer")
	}
	return NewReinjectEncoder(source, reinject).Handler(e.writer), nil
}

type driveFunc func(ctx context.Context, sink RecordSink, opts storagemodels.ReplayOptions) (driveResult, error)

// run wires one producer to one pool and blocks until both are finished.
func (e *Engine) run(ctx context.Context, kind, streamName string, handler pool.Handler, drive driveFunc, opts storagemodels.ReplayOptions) (*storagemodels.Outcome, error) {
	telemetry.ActiveOperations.Inc()
	defer telemetry.ActiveOperations.Dec()

	outcome := &storagemodels.Outcome{Stream: streamName, StartTime: time.Now()}
	name := kind + ":" + streamName

	p := pool.New(ctx, name, handler, opts)
	c := newCoordinator(name)
	p.OnDrained(c.drained)

	go func() {
		result, err := drive(p.Context(), p, opts)
		c.producerDone(result, err)
	}()

	result, stats, err := c.await(p)
	if err == nil && opts.FailFast {
		err = p.Err()
	}

	outcome.Pages = result.Pages
	outcome.RecordsEnqueued = stats.Enqueued
	outcome.RecordsProcessed = stats.Processed
	outcome.HandlerErrors = stats.HandlerErrors
	outcome.Err = err
	outcome.Duration = time.Since(outcome.StartTime)

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Str("operation", kind).
		Str("stream", streamName).
		Str("table", result.Table).
		Int("pages", outcome.Pages).
		Int64("enqueued", outcome.RecordsEnqueued).
		Int64("processed", outcome.RecordsProcessed).
		Int64("handler_errors", outcome.HandlerErrors).
		Dur("duration", outcome.Duration).
		Msg("Replay finished")

	return outcome, err
}
