/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// ReplayOptions configures the record sink pool and the driver feeding it.
type ReplayOptions struct {
	Threads         int                  // Concurrent handler slots (default: 1)
	BufferSize      int                  // Pending records before the producer blocks (default: 100)
	FailFast        bool                 // Abort on the first handler error (default: false)
	ProgressHandler func(ReplayProgress) // Optional callback after each page
}

// ReplayProgress tracks pagination progress
type ReplayProgress struct {
	PagesFetched    int
	RecordsEnqueued int64
	LastKey         StartKey
	StartTime       time.Time
	CurrentRate     float64 // Records enqueued per second
}

// ReplayOption is a functional option for configuring a replay
type ReplayOption func(*ReplayOptions)

// DefaultReplayOptions returns default replay options
func DefaultReplayOptions() ReplayOptions {
	return ReplayOptions{
		Threads:    1,
		BufferSize: 100,
	}
}

// ApplyReplayOptions applies opts on top of the defaults.
func ApplyReplayOptions(opts ...ReplayOption) ReplayOptions {
	options := DefaultReplayOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Threads <= 0 {
		options.Threads = 1
	}
	if options.BufferSize <= 0 {
		options.BufferSize = 1
	}
	return options
}

// WithThreads sets the number of concurrent handler slots
func WithThreads(threads int) ReplayOption {
	return func(opts *ReplayOptions) {
		opts.Threads = threads
	}
}

// WithBufferSize sets how many records may be pending before enqueue blocks
func WithBufferSize(size int) ReplayOption {
	return func(opts *ReplayOptions) {
		opts.BufferSize = size
	}
}

// WithFailFast makes the first handler error abort the operation
func WithFailFast(failFast bool) ReplayOption {
	return func(opts *ReplayOptions) {
		opts.FailFast = failFast
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(ReplayProgress)) ReplayOption {
	return func(opts *ReplayOptions) {
		opts.ProgressHandler = handler
	}
}
