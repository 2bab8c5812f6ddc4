/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
)

// ValueType is the DynamoDB scalar type of a filter bound.
type ValueType string

const (
	ValueString ValueType = "S"
	ValueNumber ValueType = "N"
)

// RangeFilter is a lower bound "field >= value" on one attribute.
type RangeFilter struct {
	Field string
	Value string
	Type  ValueType
}

// QueryKind identifies the sort-key shape of a partition query.
type QueryKind int

const (
	// QueryPartition returns every record of the partition.
	QueryPartition QueryKind = iota
	// QueryPointGet fetches one record by exact key.
	QueryPointGet
	// QueryAtOrAfter is sortKey >= start.
	QueryAtOrAfter
	// QueryAtOrBefore is sortKey <= end.
	QueryAtOrBefore
	// QueryBetween is sortKey BETWEEN start AND end.
	QueryBetween
)

func (k QueryKind) String() string {
	switch k {
	case QueryPointGet:
		return "point-get"
	case QueryAtOrAfter:
		return "at-or-after"
	case QueryAtOrBefore:
		return "at-or-before"
	case QueryBetween:
		return "between"
	default:
		return "partition"
	}
}

// QueryPlan is the store request chosen for a QueryRequest. Exactly one of
// Get and Query is set.
type QueryPlan struct {
	Kind  QueryKind
	Get   *storagemodels.GetParams
	Query *storagemodels.QueryParams
	// Warning is set when the requested shape was degraded for the recovery mode.
	Warning string
}

// SelectQueryKind maps a pair of optional sort-key bounds to exactly one query shape.
func SelectQueryKind(start, end string) QueryKind {
	switch {
	case start != "" && end != "" && start == end:
		return QueryPointGet
	case start != "" && end != "":
		return QueryBetween
	case start != "":
		return QueryAtOrAfter
	case end != "":
		return QueryAtOrBefore
	default:
		return QueryPartition
	}
}

// ScanFilters returns the range filters a scan request supplies, in a fixed
// order. Absent bounds are omitted.
func (s TableSchema) ScanFilters(req storagemodels.ScanRequest) ([]RangeFilter, error) {
	var filters []RangeFilter
	if req.SequenceStart != "" {
		filters = append(filters, RangeFilter{Field: s.SortKeyName, Value: req.SequenceStart, Type: ValueString})
	}
	if req.LastUpdateStart != "" {
		// compared as a string, so a date-only prefix is a valid lower bound
		filters = append(filters, RangeFilter{Field: s.LastUpdateName, Value: req.LastUpdateStart, Type: ValueString})
	}
	if req.ApproximateArrivalStart != "" {
		if _, err := strconv.ParseFloat(req.ApproximateArrivalStart, 64); err != nil {
			return nil, errors.NewValidationError("approximateArrivalStart", "must be numeric")
		}
		filters = append(filters, RangeFilter{Field: s.ApproximateArrivalName, Value: req.ApproximateArrivalStart, Type: ValueNumber})
	}
	return filters, nil
}

// BuildFilterExpression composes filters into a conjunction of "#f >= :f"
// clauses. Attribute names are always aliased so reserved words cannot
// collide. It returns nil maps and an empty expression when filters is empty.
func BuildFilterExpression(filters []RangeFilter) (string, map[string]string, map[string]types.AttributeValue) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	names := make(map[string]string, len(filters))
	values := make(map[string]types.AttributeValue, len(filters))
	for _, f := range filters {
		clauses = append(clauses, "#"+f.Field+" >= :"+f.Field)
		names["#"+f.Field] = f.Field
		values[":"+f.Field] = attributeValue(f.Value, f.Type)
	}
	return strings.Join(clauses, " AND "), names, values
}

// BuildScanParams builds the first page request of a filtered table scan.
func (s TableSchema) BuildScanParams(tableName string, req storagemodels.ScanRequest) (*storagemodels.ScanParams, error) {
	filters, err := s.ScanFilters(req)
	if err != nil {
		return nil, err
	}

	params := &storagemodels.ScanParams{
		TableName: tableName,
		Limit:     limit(req.RecordLimit),
	}
	if expr, names, values := BuildFilterExpression(filters); expr != "" {
		params.FilterExpression = aws.String(expr)
		params.ExpressionAttributeNames = names
		params.ExpressionAttributeValues = values
	}
	return params, nil
}

// BuildQueryPlan chooses between a point get and a key-condition query for
// one partition, honouring the recovery mode of the archive.
func (s TableSchema) BuildQueryPlan(archive storagemodels.ArchiveStreamConfig, req storagemodels.QueryRequest) (*QueryPlan, error) {
	if req.PartitionKey == "" {
		return nil, errors.NewValidationError("partitionKey", "is required for a query")
	}

	kind := SelectQueryKind(req.SequenceStart, req.SequenceEnd)
	plan := &QueryPlan{Kind: kind}

	if kind != QueryPartition && !archive.RecoveryMode.HasSortKey() {
		plan.Warning = "sequence information supplied but archive mode is " + string(archive.RecoveryMode)
		if kind != QueryPointGet {
			plan.Kind = QueryPartition
		}
	}

	if plan.Kind == QueryPointGet {
		key := map[string]types.AttributeValue{
			s.PartitionKeyName: &types.AttributeValueMemberS{Value: req.PartitionKey},
		}
		if archive.RecoveryMode.HasSortKey() {
			key[s.SortKeyName] = &types.AttributeValueMemberS{Value: req.SequenceStart}
		}
		plan.Get = &storagemodels.GetParams{TableName: archive.TableName, Key: key}
		return plan, nil
	}

	pk := "#" + s.PartitionKeyName
	sk := "#" + s.SortKeyName
	conditions := []string{pk + " = :partitionKey"}
	names := map[string]string{pk: s.PartitionKeyName}
	values := map[string]types.AttributeValue{
		":partitionKey": &types.AttributeValueMemberS{Value: req.PartitionKey},
	}

	switch plan.Kind {
	case QueryAtOrAfter:
		conditions = append(conditions, sk+" >= :sequenceStart")
		values[":sequenceStart"] = &types.AttributeValueMemberS{Value: req.SequenceStart}
	case QueryAtOrBefore:
		conditions = append(conditions, sk+" <= :sequenceEnd")
		values[":sequenceEnd"] = &types.AttributeValueMemberS{Value: req.SequenceEnd}
	case QueryBetween:
		conditions = append(conditions, sk+" BETWEEN :sequenceStart AND :sequenceEnd")
		values[":sequenceStart"] = &types.AttributeValueMemberS{Value: req.SequenceStart}
		values[":sequenceEnd"] = &types.AttributeValueMemberS{Value: req.SequenceEnd}
	}
	if plan.Kind != QueryPartition {
		names[sk] = s.SortKeyName
	}

	plan.Query = &storagemodels.QueryParams{
		TableName:                 archive.TableName,
		KeyConditionExpression:    strings.Join(conditions, " AND "),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		Limit:                     limit(req.RecordLimit),
	}
	return plan, nil
}

// BuildScanParams builds scan parameters using DefaultTableSchema.
func BuildScanParams(tableName string, req storagemodels.ScanRequest) (*storagemodels.ScanParams, error) {
	return DefaultTableSchema.BuildScanParams(tableName, req)
}

// BuildQueryPlan builds a query plan using DefaultTableSchema.
func BuildQueryPlan(archive storagemodels.ArchiveStreamConfig, req storagemodels.QueryRequest) (*QueryPlan, error) {
	return DefaultTableSchema.BuildQueryPlan(archive, req)
}

func attributeValue(value string, typ ValueType) types.AttributeValue {
	if typ == ValueNumber {
		return &types.AttributeValueMemberN{Value: value}
	}
	return &types.AttributeValueMemberS{Value: value}
}

func limit(n int32) *int32 {
	if n <= 0 {
		return nil
	}
	return aws.Int32(n)
}
