//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kinesisarchive_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/kinesisarchive/archive"
	"github.com/suparena/kinesisarchive/datastore/ddb"
	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/replay"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/stream"
)

// The table must exist with partitionKey (S) as hash key and sequenceNumber
// (S) as range key.
func setupIntegrationTest(t *testing.T) (*sdk.Client, string) {
	_ = godotenv.Load()

	table := os.Getenv("ARCHIVE_TEST_TABLE")
	if table == "" {
		t.Skip("ARCHIVE_TEST_TABLE not set, skipping integration test")
	}

	awsCfg, err := ddb.LoadAWSConfig(context.Background(),
		os.Getenv("AWS_ACCESS_KEY_ID"),
		os.Getenv("AWS_SECRET_ACCESS_KEY"),
		os.Getenv("AWS_REGION"),
	)
	require.NoError(t, err)
	return ddb.NewDynamoDBClient(awsCfg, os.Getenv("DYNAMODB_ENDPOINT")), table
}

func TestIntegrationReplay(t *testing.T) {
	client, table := setupIntegrationTest(t)
	ctx := context.Background()

	pk := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	for i := 0; i < 25; i++ {
		rec := storagemodels.NewArchivedRecord(pk, fmt.Sprintf("seq-%03d", i), "shard-0", float64(time.Now().Unix()), []byte(fmt.Sprintf("record %d", i)))
		rec.LastUpdate = time.Now().UTC().Format(time.RFC3339)
		item, err := storagemodels.EncodeRecord(rec)
		require.NoError(t, err)
		_, err = client.PutItem(ctx, &sdk.PutItemInput{TableName: aws.String(table), Item: item})
		require.NoError(t, err)
	}

	resolver := archive.NewStaticResolver(storagemodels.ArchiveStreamConfig{
		StreamName:   "integration",
		TableName:    table,
		RecoveryMode: storagemodels.RecoveryModeAll,
	})
	writer := stream.NewMemoryWriter()
	engine := replay.NewEngine(ddb.NewDynamodbArchiveStore(client), resolver, writer)

	t.Run("QueryPaged", func(t *testing.T) {
		outcome, err := engine.QueryToSink(ctx, storagemodels.QueryRequest{
			StreamName:   "integration",
			PartitionKey: pk,
			RecordLimit:  10,
		}, func(ctx context.Context, rec *storagemodels.DecodedRecord) error { return nil }, storagemodels.WithThreads(4))
		require.NoError(t, err)
		assert.Equal(t, int64(25), outcome.RecordsProcessed)
		assert.GreaterOrEqual(t, outcome.Pages, 3)
	})

	t.Run("QueryRange", func(t *testing.T) {
		outcome, err := engine.QueryToSink(ctx, storagemodels.QueryRequest{
			StreamName:    "integration",
			PartitionKey:  pk,
			SequenceStart: "seq-005",
			SequenceEnd:   "seq-009",
		}, func(ctx context.Context, rec *storagemodels.DecodedRecord) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, int64(5), outcome.RecordsProcessed)
	})

	t.Run("PointGetReinject", func(t *testing.T) {
		_, err := engine.QueryToReinject(ctx, storagemodels.QueryRequest{
			StreamName:    "integration",
			PartitionKey:  pk,
			SequenceStart: "seq-007",
			SequenceEnd:   "seq-007",
		}, storagemodels.ReinjectOptions{TargetStream: "integration-replay", IncludeMetadata: true})
		require.NoError(t, err)

		msgs := writer.Messages("integration-replay")
		require.Len(t, msgs, 1)
		assert.Equal(t, pk, msgs[0].PartitionKey)
		assert.Contains(t, string(msgs[0].Data), `"originalSequenceNumber":"seq-007"`)
	})

	t.Run("ScanFiltered", func(t *testing.T) {
		outcome, err := engine.ScanToSink(ctx, storagemodels.ScanRequest{
			StreamName:    "integration",
			SequenceStart: "seq-020",
		}, func(ctx context.Context, rec *storagemodels.DecodedRecord) error { return nil })
		require.NoError(t, err)
		assert.GreaterOrEqual(t, outcome.RecordsProcessed, int64(5))
	})

	t.Run("MissingTable", func(t *testing.T) {
		missing := replay.NewEngine(ddb.NewDynamodbArchiveStore(client), archive.NewStaticResolver(storagemodels.ArchiveStreamConfig{
			StreamName:   "integration",
			TableName:    table + "-does-not-exist",
			RecoveryMode: storagemodels.RecoveryModeAll,
		}), nil)
		_, err := missing.ScanToSink(ctx, storagemodels.ScanRequest{StreamName: "integration"},
			func(ctx context.Context, rec *storagemodels.DecodedRecord) error { return nil })
		assert.True(t, errors.IsStoreRequestError(err))
	})
}
