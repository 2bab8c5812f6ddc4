/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package pool implements the record sink pool: a fixed number of workers
// draining a bounded queue of archive items into a per-record handler.
package pool

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/telemetry"
)

// ErrClosed is returned by Push after Close
var ErrClosed = stderrors.New("record sink pool is closed")

// Handler processes one decoded record
type Handler func(ctx context.Context, rec *storagemodels.DecodedRecord) error

// Stats summarises the work done by a pool
type Stats struct {
	Enqueued      int64
	Processed     int64
	HandlerErrors int64
	// Skipped counts records dropped after a fail-fast abort.
	Skipped int64
}

type task struct {
	item   map[string]types.AttributeValue
	onDone func(error)
}

// Pool is a bounded record sink. Push blocks while the queue is full.
type Pool struct {
	name     string
	handler  Handler
	failFast bool

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu     sync.RWMutex
	closed bool
	tasks  chan task
	wg     sync.WaitGroup

	pending   atomic.Int64
	enqueued  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64

	errMu    sync.Mutex
	firstErr error

	drainedMu sync.Mutex
	onDrained func()
}

// New starts opts.Threads workers. The pool context is derived from ctx and
// is cancelled on the first handler error when opts.FailFast is set.
func New(ctx context.Context, name string, handler Handler, opts storagemodels.ReplayOptions) *Pool {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1
	}

	pctx, cancel := context.WithCancelCause(ctx)
	p := &Pool{
		name:     name,
		handler:  handler,
		failFast: opts.FailFast,
		ctx:      pctx,
		cancel:   cancel,
		tasks:    make(chan task, opts.BufferSize),
	}

	for i := 0; i < opts.Threads; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Debug().
		Str("pool", name).
		Int("threads", opts.Threads).
		Int("buffer_size", opts.BufferSize).
		Bool("fail_fast", opts.FailFast).
		Msg("Record sink pool started")
	return p
}

// Push enqueues one archive item. onDone, if not nil, is invoked exactly once
// by the pool after the item has been handled or skipped. When Push returns an
// error the item was not accepted and onDone is never invoked.
func (p *Pool) Push(ctx context.Context, item map[string]types.AttributeValue, onDone func(error)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	if p.ctx.Err() != nil {
		return context.Cause(p.ctx)
	}

	p.pending.Add(1)
	select {
	case p.tasks <- task{item: item, onDone: onDone}:
		p.enqueued.Add(1)
		telemetry.RecordsEnqueuedTotal.Inc()
		telemetry.QueueDepth.Inc()
		return nil
	case <-ctx.Done():
		p.pending.Add(-1)
		return ctx.Err()
	case <-p.ctx.Done():
		p.pending.Add(-1)
		return context.Cause(p.ctx)
	}
}

// Close stops accepting records. Queued records are still processed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Wait blocks until Close has been called and every queued record is done.
func (p *Pool) Wait() Stats {
	p.wg.Wait()
	p.cancel(nil)
	return p.Stats()
}

// Stats returns the current counters
func (p *Pool) Stats() Stats {
	return Stats{
		Enqueued:      p.enqueued.Load(),
		Processed:     p.processed.Load(),
		HandlerErrors: p.failed.Load(),
		Skipped:       p.skipped.Load(),
	}
}

// Pending returns the number of accepted records not yet done
func (p *Pool) Pending() int64 {
	return p.pending.Load()
}

// Err returns the handler error that aborted a fail-fast pool
func (p *Pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.firstErr
}

// Context is cancelled when a fail-fast pool aborts or the parent is cancelled
func (p *Pool) Context() context.Context {
	return p.ctx
}

// OnDrained registers fn to run every time the pending count returns to zero.
// The pool may drain many times during one operation.
func (p *Pool) OnDrained(fn func()) {
	p.drainedMu.Lock()
	defer p.drainedMu.Unlock()
	p.onDrained = fn
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for t := range p.tasks {
		telemetry.QueueDepth.Dec()

		var err error
		if p.ctx.Err() != nil {
			err = context.Cause(p.ctx)
			p.skipped.Add(1)
		} else {
			err = p.process(t.item)
			p.processed.Add(1)
			telemetry.RecordsProcessedTotal.Inc()
		}

		if t.onDone != nil {
			t.onDone(err)
		}
		if p.pending.Add(-1) == 0 {
			p.drained()
		}
	}

	log.Debug().Str("pool", p.name).Int("worker", id).Msg("Record sink worker stopped")
}

func (p *Pool) process(item map[string]types.AttributeValue) error {
	rec, err := storagemodels.DecodeRecord(item)
	if err != nil {
		return p.fail("", "", err)
	}
	decoded, err := rec.Decode()
	if err != nil {
		return p.fail(rec.PartitionKey, rec.SequenceNumber, err)
	}

	if err := p.invoke(decoded); err != nil {
		return p.fail(rec.PartitionKey, rec.SequenceNumber, err)
	}
	return nil
}

func (p *Pool) invoke(rec *storagemodels.DecodedRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler(p.ctx, rec)
}

func (p *Pool) fail(partitionKey, sequenceNumber string, cause error) error {
	err := errors.NewHandlerError(partitionKey, sequenceNumber, cause)
	p.failed.Add(1)
	telemetry.HandlerErrorsTotal.Inc()

	log.Error().
		Err(cause).
		Str("pool", p.name).
		Str("partition_key", partitionKey).
		Str("sequence_number", sequenceNumber).
		Msg("Record handler failed")

	if p.failFast {
		p.errMu.Lock()
		if p.firstErr == nil {
			p.firstErr = err
			p.cancel(err)
		}
		p.errMu.Unlock()
	}
	return err
}

func (p *Pool) drained() {
	p.drainedMu.Lock()
	fn := p.onDrained
	p.drainedMu.Unlock()
	if fn != nil {
		fn()
	}
}
