/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// ScanRequest selects records across the whole archive table. Every bound is
// optional; empty strings are omitted from the filter rather than defaulted.
type ScanRequest struct {
	StreamName string
	// SequenceStart is a lower bound on the sequence number.
	SequenceStart string
	// LastUpdateStart is a lower bound on the lastUpdate date-time.
	LastUpdateStart string
	// ApproximateArrivalStart is a numeric lower bound on the arrival timestamp.
	ApproximateArrivalStart string
	// RecordLimit bounds each page request. Zero means the store default.
	RecordLimit int32
}

// QueryRequest selects records of one partition key.
type QueryRequest struct {
	StreamName    string
	PartitionKey  string
	SequenceStart string
	SequenceEnd   string
	RecordLimit   int32
}

// ReinjectOptions configures write-back of archived records to a stream.
type ReinjectOptions struct {
	// TargetStream is the destination; the source stream is used when empty.
	TargetStream      string
	IncludeMetadata   bool
	MetadataSeparator string
}

// Outcome aggregates the result of one replay operation.
type Outcome struct {
	Stream           string
	Pages            int
	RecordsEnqueued  int64
	RecordsProcessed int64
	// HandlerErrors counts per-record failures; in best-effort mode they are
	// not reflected in Err.
	HandlerErrors int64
	// Err is the fatal error that ended the operation, if any.
	Err       error
	StartTime time.Time
	Duration  time.Duration
}
