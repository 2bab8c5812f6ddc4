/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/archive"
	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/telemetry"
)

// RecordSink accepts archive items from the pagination driver. Push may
// block; onDone is invoked once the sink has finished with an accepted item.
type RecordSink interface {
	Push(ctx context.Context, item map[string]types.AttributeValue, onDone func(error)) error
}

// driveResult is what the producer side reports to the coordinator
type driveResult struct {
	Table    string
	Pages    int
	Enqueued int64
}

type fetchFunc func(ctx context.Context, start storagemodels.StartKey) (*storagemodels.Page, error)

func (e *Engine) driveScan(ctx context.Context, resolver archive.Resolver, req storagemodels.ScanRequest, sink RecordSink, opts storagemodels.ReplayOptions) (driveResult, error) {
	config, err := resolver.Resolve(ctx, req.StreamName)
	if err != nil {
		return driveResult{}, err
	}

	params, err := e.schema.BuildScanParams(config.TableName, req)
	if err != nil {
		return driveResult{Table: config.TableName}, err
	}

	if req.LastUpdateStart != "" && !strfmt.IsDateTime(req.LastUpdateStart) {
		log.Debug().
			Str("stream", req.StreamName).
			Str("last_update_start", req.LastUpdateStart).
			Msg("lastUpdateStart is not a full date-time, comparing it as a string prefix")
	}

	log.Debug().
		Str("stream", req.StreamName).
		Str("table", config.TableName).
		Str("filter", derefString(params.FilterExpression)).
		Interface("names", params.ExpressionAttributeNames).
		Msg("Scan parameters")

	return e.paginate(ctx, "Scan", config.TableName, func(ctx context.Context, start storagemodels.StartKey) (*storagemodels.Page, error) {
		params.ExclusiveStartKey = start
		return e.store.Scan(ctx, params)
	}, sink, opts)
}

func (e *Engine) driveQuery(ctx context.Context, resolver archive.Resolver, req storagemodels.QueryRequest, sink RecordSink, opts storagemodels.ReplayOptions) (driveResult, error) {
	config, err := resolver.Resolve(ctx, req.StreamName)
	if err != nil {
		return driveResult{}, err
	}

	plan, err := e.schema.BuildQueryPlan(config, req)
	if err != nil {
		return driveResult{Table: config.TableName}, err
	}
	if plan.Warning != "" {
		log.Warn().
			Str("stream", req.StreamName).
			Str("table", config.TableName).
			Str("partition_key", req.PartitionKey).
			Str("query_kind", plan.Kind.String()).
			Msg(plan.Warning)
	}

	if plan.Get != nil {
		return e.pointGet(ctx, config.TableName, plan.Get, sink, opts)
	}

	log.Debug().
		Str("stream", req.StreamName).
		Str("table", config.TableName).
		Str("query_kind", plan.Kind.String()).
		Str("key_condition", plan.Query.KeyConditionExpression).
		Msg("Query parameters")

	params := plan.Query
	return e.paginate(ctx, "Query", config.TableName, func(ctx context.Context, start storagemodels.StartKey) (*storagemodels.Page, error) {
		params.ExclusiveStartKey = start
		return e.store.Query(ctx, params)
	}, sink, opts)
}

// paginate requests pages strictly one after another, pushing every item of
// a page before the next request is issued.
func (e *Engine) paginate(ctx context.Context, operation, table string, fetch fetchFunc, sink RecordSink, opts storagemodels.ReplayOptions) (driveResult, error) {
	result := driveResult{Table: table}
	startTime := time.Now()

	var start storagemodels.StartKey
	for {
		if ctx.Err() != nil {
			return result, context.Cause(ctx)
		}

		page, err := e.fetch(ctx, operation, table, result.Pages+1, func(ctx context.Context) (*storagemodels.Page, error) {
			return fetch(ctx, start)
		})
		if err != nil {
			return result, err
		}
		result.Pages++

		if err := e.enqueue(ctx, table, page.Items, sink, &result); err != nil {
			return result, err
		}

		if opts.ProgressHandler != nil {
			progress := storagemodels.ReplayProgress{
				PagesFetched:    result.Pages,
				RecordsEnqueued: result.Enqueued,
				LastKey:         page.LastEvaluatedKey,
				StartTime:       startTime,
			}
			if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(result.Enqueued) / elapsed
			}
			opts.ProgressHandler(progress)
		}

		if !page.HasMore() {
			return result, nil
		}
		start = page.LastEvaluatedKey
	}
}

// pointGet is a one-item page: done follows as soon as the item is enqueued.
func (e *Engine) pointGet(ctx context.Context, table string, params *storagemodels.GetParams, sink RecordSink, opts storagemodels.ReplayOptions) (driveResult, error) {
	result := driveResult{Table: table}

	page, err := e.fetch(ctx, "GetItem", table, 1, func(ctx context.Context) (*storagemodels.Page, error) {
		item, err := e.store.GetItem(ctx, params)
		if err != nil {
			return nil, err
		}
		page := &storagemodels.Page{}
		if item != nil {
			page.Items = append(page.Items, item)
		}
		return page, nil
	})
	if err != nil {
		return result, err
	}
	result.Pages = 1

	if len(page.Items) == 0 {
		log.Debug().Str("table", table).Msg("Point get found no record")
	}
	if err := e.enqueue(ctx, table, page.Items, sink, &result); err != nil {
		return result, err
	}
	if opts.ProgressHandler != nil {
		opts.ProgressHandler(storagemodels.ReplayProgress{PagesFetched: 1, RecordsEnqueued: result.Enqueued, StartTime: time.Now()})
	}
	return result, nil
}

func (e *Engine) fetch(ctx context.Context, operation, table string, pageNumber int, fn func(context.Context) (*storagemodels.Page, error)) (*storagemodels.Page, error) {
	started := time.Now()
	page, err := fn(ctx)
	telemetry.PageFetchSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		telemetry.StoreErrorsTotal.With(operation).Inc()
		log.Error().
			Err(err).
			Str("operation", operation).
			Str("table", table).
			Int("page", pageNumber).
			Msg("Archive store request failed")
		return nil, errors.NewStoreRequestError(operation, table, pageNumber, err)
	}
	telemetry.PagesFetchedTotal.With(operation).Inc()
	return page, nil
}

// enqueue pushes items in page order. A failed push is logged and skipped
// unless the operation itself has been cancelled.
func (e *Engine) enqueue(ctx context.Context, table string, items []map[string]types.AttributeValue, sink RecordSink, result *driveResult) error {
	for _, item := range items {
		if err := sink.Push(ctx, item, nil); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			log.Warn().
				Err(err).
				Str("table", table).
				Msg("Failed to enqueue archived record")
			continue
		}
		result.Enqueued++
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
