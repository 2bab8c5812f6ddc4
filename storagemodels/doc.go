/*
Package storagemodels defines the data structures shared by the archive store,
the record sink pool and the replay engine.

Key Types:

ArchivedRecord:
The item shape written by the stream archiver:

	type ArchivedRecord struct {
	    PartitionKey                string  // partitionKey
	    SequenceNumber              string  // sequenceNumber (sort key under ALL)
	    RecordData                  string  // recordData, base64
	    ApproximateArrivalTimestamp json.Number // approximateArrivalTimestamp, N literal kept verbatim
	    ShardID                     string  // shardId
	    LastUpdate                  string  // lastUpdate
	}

ScanParams / QueryParams / GetParams:
Store-native request shapes produced by the predicate builder in datastore/ddb.
Page carries the items of one response and its continuation token.

ReplayOptions:

	opts := []ReplayOption{
	    WithThreads(8),
	    WithBufferSize(500),
	    WithFailFast(true),
	}
*/
package storagemodels
