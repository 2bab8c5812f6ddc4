/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

// TableSchema holds the attribute names the archiver writes
type TableSchema struct {
	// PartitionKeyName is the hash key attribute (the Kinesis partition key)
	PartitionKeyName string
	// SortKeyName is the range key attribute, present only under RecoveryModeAll
	SortKeyName string
	// LastUpdateName is the attribute holding the archiver's write time
	LastUpdateName string
	// ApproximateArrivalName holds the Kinesis approximate arrival timestamp
	ApproximateArrivalName string
	// RecordDataName holds the base64 encoded payload
	RecordDataName string
	// ShardIDName holds the originating shard
	ShardIDName string
}

// DefaultTableSchema is the layout used by the stream archiver
var DefaultTableSchema = TableSchema{
	PartitionKeyName:       "partitionKey",
	SortKeyName:            "sequenceNumber",
	LastUpdateName:         "lastUpdate",
	ApproximateArrivalName: "approximateArrivalTimestamp",
	RecordDataName:         "recordData",
	ShardIDName:            "shardId",
}
