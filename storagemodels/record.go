/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ArchivedRecord is a read-only projection of an item written by the archiver.
type ArchivedRecord struct {
	PartitionKey string `dynamodbav:"partitionKey" json:"partitionKey" msgpack:"partitionKey"`
	// SequenceNumber is the table sort key under RecoveryModeAll.
	SequenceNumber string `dynamodbav:"sequenceNumber,omitempty" json:"sequenceNumber,omitempty" msgpack:"sequenceNumber,omitempty"`
	// RecordData is the base64 encoded payload as stored.
	RecordData string `dynamodbav:"recordData" json:"recordData" msgpack:"recordData"`
	// ApproximateArrivalTimestamp keeps the N literal of the item unchanged.
	ApproximateArrivalTimestamp json.Number `dynamodbav:"approximateArrivalTimestamp" json:"approximateArrivalTimestamp" msgpack:"approximateArrivalTimestamp"`
	ShardID                     string      `dynamodbav:"shardId" json:"shardId" msgpack:"shardId"`
	LastUpdate                  string      `dynamodbav:"lastUpdate,omitempty" json:"lastUpdate,omitempty" msgpack:"lastUpdate,omitempty"`
}

// DecodedRecord is an archived record together with its decoded payload.
type DecodedRecord struct {
	ArchivedRecord
	Data []byte
}

// DecodeRecord unmarshals a raw archive item.
func DecodeRecord(item map[string]types.AttributeValue) (ArchivedRecord, error) {
	var rec ArchivedRecord
	if item == nil {
		return rec, fmt.Errorf("nil archive item")
	}
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal archive item: %w", err)
	}
	if rec.PartitionKey == "" {
		return rec, fmt.Errorf("archive item has no partitionKey attribute")
	}
	return rec, nil
}

// EncodeRecord marshals a record into the item shape the archiver writes.
func EncodeRecord(rec ArchivedRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive item: %w", err)
	}
	return item, nil
}

// NewArchivedRecord builds a record from a raw payload, encoding it the way the archiver does.
func NewArchivedRecord(partitionKey, sequenceNumber, shardID string, arrival float64, payload []byte) ArchivedRecord {
	return ArchivedRecord{
		PartitionKey:                partitionKey,
		SequenceNumber:              sequenceNumber,
		RecordData:                  base64.StdEncoding.EncodeToString(payload),
		ApproximateArrivalTimestamp: json.Number(strconv.FormatFloat(arrival, 'f', -1, 64)),
		ShardID:                     shardID,
	}
}

// Payload decodes RecordData into raw bytes.
func (r ArchivedRecord) Payload() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.RecordData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recordData for %s/%s: %w", r.PartitionKey, r.SequenceNumber, err)
	}
	return data, nil
}

// Decode returns the record with its payload decoded.
func (r ArchivedRecord) Decode() (*DecodedRecord, error) {
	data, err := r.Payload()
	if err != nil {
		return nil, err
	}
	return &DecodedRecord{ArchivedRecord: r, Data: data}, nil
}

// ArrivalTimestamp is the arrival timestamp exactly as the store holds it.
func (r ArchivedRecord) ArrivalTimestamp() json.Number {
	return r.ApproximateArrivalTimestamp
}
