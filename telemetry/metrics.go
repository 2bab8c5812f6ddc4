/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package telemetry

// PageFetchBuckets for single DynamoDB Scan/Query/GetItem round trips
var PageFetchBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// PagesFetchedTotal counts store pages by operation (scan, query, get)
	PagesFetchedTotal CounterVec = noopCounterVec{}

	// StoreErrorsTotal counts failed store requests by operation
	StoreErrorsTotal CounterVec = noopCounterVec{}

	// PageFetchSeconds measures store request latency
	PageFetchSeconds Histogram = NoopStat{}

	// RecordsEnqueuedTotal counts records handed to a sink pool
	RecordsEnqueuedTotal Counter = NoopStat{}

	// RecordsProcessedTotal counts records whose handler returned
	RecordsProcessedTotal Counter = NoopStat{}

	// HandlerErrorsTotal counts records whose handler failed
	HandlerErrorsTotal Counter = NoopStat{}

	// QueueDepth tracks records waiting for a free worker slot
	QueueDepth Gauge = NoopStat{}

	// ActiveOperations tracks replay operations in flight
	ActiveOperations Gauge = NoopStat{}
)

// InitMetrics replaces the no-op stats with registered collectors
func InitMetrics() {
	PagesFetchedTotal = NewCounterVec(
		"pages_fetched_total",
		"Archive store pages fetched by operation",
		[]string{"operation"},
	)
	StoreErrorsTotal = NewCounterVec(
		"store_errors_total",
		"Failed archive store requests by operation",
		[]string{"operation"},
	)
	PageFetchSeconds = NewHistogramWithBuckets(
		"page_fetch_seconds",
		"Archive store request latency",
		PageFetchBuckets,
	)
	RecordsEnqueuedTotal = NewCounter(
		"records_enqueued_total",
		"Records handed to a sink pool",
	)
	RecordsProcessedTotal = NewCounter(
		"records_processed_total",
		"Records processed by a sink pool handler",
	)
	HandlerErrorsTotal = NewCounter(
		"handler_errors_total",
		"Records whose handler returned an error",
	)
	QueueDepth = NewGauge(
		"queue_depth",
		"Records waiting for a worker slot",
	)
	ActiveOperations = NewGauge(
		"active_operations",
		"Replay operations in flight",
	)
}
