/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package kinesisarchive replays Kinesis records captured in a DynamoDB archive
table, either to an arbitrary handler or back onto a stream.

An archive table is keyed by partitionKey and, when the stream is archived
with recovery mode ALL, by sequenceNumber. Under LATEST only the newest
record of each partition key is kept and there is no usable sort key.

Packages:
  - storagemodels: records, requests, options and outcomes
  - datastore, datastore/ddb: the paged archive store and its predicate builder
  - archive: resolution of a stream's archive table and recovery mode
  - pool: the bounded record sink pool
  - replay: pagination, completion and reinjection
  - stream: destination writers for Kinesis, Kafka, NATS and memory
  - cfg, telemetry: configuration and Prometheus metrics

Basic Usage:

	if err := cfg.Load("archive.toml"); err != nil {
	    return err
	}
	a, err := kinesisarchive.Open(ctx, cfg.Config)
	if err != nil {
	    return err
	}
	defer a.Close()

	outcome, err := a.Engine.QueryToReinject(ctx,
	    storagemodels.QueryRequest{StreamName: "orders", PartitionKey: "customer#7"},
	    a.ReinjectOptions("orders-replay"),
	)
*/
package kinesisarchive
