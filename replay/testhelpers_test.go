/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/suparena/kinesisarchive/archive"
	"github.com/suparena/kinesisarchive/datastore/mock"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/stream"
)

const testStream = "orders"

func archivedItem(t *testing.T, pk, seq, payload string) map[string]types.AttributeValue {
	t.Helper()
	item, err := storagemodels.EncodeRecord(storagemodels.NewArchivedRecord(pk, seq, "shard-0", 1000, []byte(payload)))
	require.NoError(t, err)
	return item
}

// pages builds n pages of size items each, with sequence numbers seq-<page>-<i>
func pages(t *testing.T, n, size int) [][]map[string]types.AttributeValue {
	t.Helper()
	result := make([][]map[string]types.AttributeValue, n)
	for p := 0; p < n; p++ {
		for i := 0; i < size; i++ {
			seq := fmt.Sprintf("seq-%d-%d", p+1, i)
			result[p] = append(result[p], archivedItem(t, "p1", seq, "payload-"+seq))
		}
	}
	return result
}

func newTestEngine(store *mock.ArchiveStore, mode storagemodels.RecoveryMode, writer stream.Writer) *Engine {
	resolver := archive.NewStaticResolver(storagemodels.ArchiveStreamConfig{
		StreamName:   testStream,
		TableName:    testStream + "-archive",
		RecoveryMode: mode,
	})
	return NewEngine(store, resolver, writer)
}

// recordingSink accepts every item immediately
type recordingSink struct {
	mu    sync.Mutex
	items []map[string]types.AttributeValue
}

func (s *recordingSink) Push(ctx context.Context, item map[string]types.AttributeValue, onDone func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	if onDone != nil {
		onDone(nil)
	}
	return nil
}

func (s *recordingSink) sequences(t *testing.T) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var seqs []string
	for _, item := range s.items {
		rec, err := storagemodels.DecodeRecord(item)
		require.NoError(t, err)
		seqs = append(seqs, rec.SequenceNumber)
	}
	return seqs
}

// collector is a pool handler remembering every record it saw
type collector struct {
	mu   sync.Mutex
	recs []*storagemodels.DecodedRecord
}

func (c *collector) handle(ctx context.Context, rec *storagemodels.DecodedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.recs)
}
