/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"regexp"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
)

var allArchive = storagemodels.ArchiveStreamConfig{
	StreamName:   "orders",
	TableName:    "orders-archive",
	RecoveryMode: storagemodels.RecoveryModeAll,
}

var latestArchive = storagemodels.ArchiveStreamConfig{
	StreamName:   "orders",
	TableName:    "orders-archive",
	RecoveryMode: storagemodels.RecoveryModeLatest,
}

// bareName matches an attribute name that is not behind a # or : placeholder.
var bareName = regexp.MustCompile(`(^|[^#:])\b(sequenceNumber|lastUpdate|approximateArrivalTimestamp|partitionKey)\b`)

func TestBuildScanParams(t *testing.T) {
	tests := []struct {
		name       string
		req        storagemodels.ScanRequest
		wantExpr   string
		wantValues map[string]types.AttributeValue
	}{
		{
			name: "no filters",
			req:  storagemodels.ScanRequest{},
		},
		{
			name:     "sequence only",
			req:      storagemodels.ScanRequest{SequenceStart: "seq-5"},
			wantExpr: "#sequenceNumber >= :sequenceNumber",
			wantValues: map[string]types.AttributeValue{
				":sequenceNumber": &types.AttributeValueMemberS{Value: "seq-5"},
			},
		},
		{
			name:     "arrival only",
			req:      storagemodels.ScanRequest{ApproximateArrivalStart: "1000"},
			wantExpr: "#approximateArrivalTimestamp >= :approximateArrivalTimestamp",
			wantValues: map[string]types.AttributeValue{
				":approximateArrivalTimestamp": &types.AttributeValueMemberN{Value: "1000"},
			},
		},
		{
			name: "all three",
			req: storagemodels.ScanRequest{
				SequenceStart:           "seq-5",
				LastUpdateStart:         "2024-01-01T00:00:00Z",
				ApproximateArrivalStart: "1000",
			},
			wantExpr: "#sequenceNumber >= :sequenceNumber AND #lastUpdate >= :lastUpdate AND #approximateArrivalTimestamp >= :approximateArrivalTimestamp",
			wantValues: map[string]types.AttributeValue{
				":sequenceNumber":              &types.AttributeValueMemberS{Value: "seq-5"},
				":lastUpdate":                  &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
				":approximateArrivalTimestamp": &types.AttributeValueMemberN{Value: "1000"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := BuildScanParams("orders-archive", tt.req)
			require.NoError(t, err)
			assert.Equal(t, "orders-archive", params.TableName)

			if tt.wantExpr == "" {
				assert.Nil(t, params.FilterExpression)
				assert.Empty(t, params.ExpressionAttributeNames)
				assert.Empty(t, params.ExpressionAttributeValues)
				return
			}

			require.NotNil(t, params.FilterExpression)
			assert.Equal(t, tt.wantExpr, *params.FilterExpression)
			assert.Equal(t, tt.wantValues, params.ExpressionAttributeValues)
			assert.Len(t, params.ExpressionAttributeNames, len(tt.wantValues))
			assert.False(t, bareName.MatchString(*params.FilterExpression), "unaliased attribute in %q", *params.FilterExpression)
		})
	}
}

func TestBuildScanParamsLimit(t *testing.T) {
	params, err := BuildScanParams("t", storagemodels.ScanRequest{RecordLimit: 25})
	require.NoError(t, err)
	require.NotNil(t, params.Limit)
	assert.Equal(t, int32(25), *params.Limit)

	params, err = BuildScanParams("t", storagemodels.ScanRequest{})
	require.NoError(t, err)
	assert.Nil(t, params.Limit)
}

func TestBuildScanParamsValidation(t *testing.T) {
	_, err := BuildScanParams("t", storagemodels.ScanRequest{ApproximateArrivalStart: "soon"})
	assert.True(t, errors.IsValidationError(err))
}

func TestBuildScanParamsLastUpdatePassesThrough(t *testing.T) {
	for _, bound := range []string{"2017-01-15", "2017-01-15 10:00:00", "2017-01-15T10:00:00Z"} {
		t.Run(bound, func(t *testing.T) {
			params, err := BuildScanParams("t", storagemodels.ScanRequest{LastUpdateStart: bound})
			require.NoError(t, err)
			require.NotNil(t, params.FilterExpression)
			assert.Equal(t, "#lastUpdate >= :lastUpdate", *params.FilterExpression)
			assert.Equal(t, &types.AttributeValueMemberS{Value: bound}, params.ExpressionAttributeValues[":lastUpdate"])
		})
	}
}

func TestSelectQueryKind(t *testing.T) {
	tests := []struct {
		start, end string
		want       QueryKind
	}{
		{"s1", "s1", QueryPointGet},
		{"s1", "", QueryAtOrAfter},
		{"", "s9", QueryAtOrBefore},
		{"s1", "s9", QueryBetween},
		{"", "", QueryPartition},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, SelectQueryKind(tt.start, tt.end))
		})
	}
}

func TestBuildQueryPlan(t *testing.T) {
	tests := []struct {
		name     string
		req      storagemodels.QueryRequest
		wantKind QueryKind
		wantExpr string
	}{
		{
			name:     "partition only",
			req:      storagemodels.QueryRequest{PartitionKey: "p1"},
			wantKind: QueryPartition,
			wantExpr: "#partitionKey = :partitionKey",
		},
		{
			name:     "start only",
			req:      storagemodels.QueryRequest{PartitionKey: "p1", SequenceStart: "s1"},
			wantKind: QueryAtOrAfter,
			wantExpr: "#partitionKey = :partitionKey AND #sequenceNumber >= :sequenceStart",
		},
		{
			name:     "end only",
			req:      storagemodels.QueryRequest{PartitionKey: "p1", SequenceEnd: "s9"},
			wantKind: QueryAtOrBefore,
			wantExpr: "#partitionKey = :partitionKey AND #sequenceNumber <= :sequenceEnd",
		},
		{
			name:     "between",
			req:      storagemodels.QueryRequest{PartitionKey: "p1", SequenceStart: "s1", SequenceEnd: "s9"},
			wantKind: QueryBetween,
			wantExpr: "#partitionKey = :partitionKey AND #sequenceNumber BETWEEN :sequenceStart AND :sequenceEnd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildQueryPlan(allArchive, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, plan.Kind)
			assert.Nil(t, plan.Get)
			require.NotNil(t, plan.Query)
			assert.Empty(t, plan.Warning)
			assert.Equal(t, tt.wantExpr, plan.Query.KeyConditionExpression)
			assert.Equal(t, "orders-archive", plan.Query.TableName)
			assert.Equal(t, &types.AttributeValueMemberS{Value: "p1"}, plan.Query.ExpressionAttributeValues[":partitionKey"])
			assert.False(t, bareName.MatchString(plan.Query.KeyConditionExpression))
			for alias := range plan.Query.ExpressionAttributeNames {
				assert.Contains(t, plan.Query.KeyConditionExpression, alias)
			}
		})
	}
}

func TestBuildQueryPlanPointGet(t *testing.T) {
	req := storagemodels.QueryRequest{PartitionKey: "p1", SequenceStart: "s1", SequenceEnd: "s1"}

	t.Run("recovery mode ALL", func(t *testing.T) {
		plan, err := BuildQueryPlan(allArchive, req)
		require.NoError(t, err)
		assert.Equal(t, QueryPointGet, plan.Kind)
		assert.Nil(t, plan.Query)
		require.NotNil(t, plan.Get)
		assert.Empty(t, plan.Warning)
		assert.Equal(t, map[string]types.AttributeValue{
			"partitionKey":   &types.AttributeValueMemberS{Value: "p1"},
			"sequenceNumber": &types.AttributeValueMemberS{Value: "s1"},
		}, plan.Get.Key)
	})

	t.Run("recovery mode LATEST degrades with warning", func(t *testing.T) {
		plan, err := BuildQueryPlan(latestArchive, req)
		require.NoError(t, err)
		assert.Equal(t, QueryPointGet, plan.Kind)
		require.NotNil(t, plan.Get)
		assert.NotEmpty(t, plan.Warning)
		assert.Equal(t, map[string]types.AttributeValue{
			"partitionKey": &types.AttributeValueMemberS{Value: "p1"},
		}, plan.Get.Key)
	})
}

func TestBuildQueryPlanLatestRangeDegradesToPartition(t *testing.T) {
	plan, err := BuildQueryPlan(latestArchive, storagemodels.QueryRequest{PartitionKey: "p1", SequenceStart: "s1"})
	require.NoError(t, err)
	assert.Equal(t, QueryPartition, plan.Kind)
	assert.NotEmpty(t, plan.Warning)
	require.NotNil(t, plan.Query)
	assert.Equal(t, "#partitionKey = :partitionKey", plan.Query.KeyConditionExpression)
	assert.NotContains(t, plan.Query.ExpressionAttributeNames, "#sequenceNumber")
}

func TestBuildQueryPlanRequiresPartitionKey(t *testing.T) {
	_, err := BuildQueryPlan(allArchive, storagemodels.QueryRequest{})
	assert.True(t, errors.IsValidationError(err))
}
