/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/kinesisarchive/errors"
	"github.com/suparena/kinesisarchive/storagemodels"
)

func item(t *testing.T, seq int, payload string) map[string]types.AttributeValue {
	t.Helper()
	rec := storagemodels.NewArchivedRecord("p1", fmt.Sprintf("seq-%d", seq), "shard-0", 1000, []byte(payload))
	it, err := storagemodels.EncodeRecord(rec)
	require.NoError(t, err)
	return it
}

func TestPoolProcessesEveryRecord(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(rec.Data))
		return nil
	}, storagemodels.ApplyReplayOptions(storagemodels.WithThreads(4), storagemodels.WithBufferSize(2)))

	var done atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Push(context.Background(), item(t, i, fmt.Sprintf("r%d", i)), func(err error) {
			assert.NoError(t, err)
			done.Add(1)
		}))
	}
	p.Close()
	stats := p.Wait()

	assert.Equal(t, int64(20), stats.Enqueued)
	assert.Equal(t, int64(20), stats.Processed)
	assert.Equal(t, int64(0), stats.HandlerErrors)
	assert.Equal(t, int64(20), done.Load(), "onDone runs once per record")
	assert.Len(t, seen, 20)
	assert.Equal(t, int64(0), p.Pending())
}

func TestPoolConcurrencyIsBounded(t *testing.T) {
	var active, peak atomic.Int64
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	}, storagemodels.ApplyReplayOptions(storagemodels.WithThreads(3)))

	for i := 0; i < 30; i++ {
		require.NoError(t, p.Push(context.Background(), item(t, i, "x"), nil))
	}
	p.Close()
	p.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestPoolPushBlocksWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		started <- struct{}{}
		<-release
		return nil
	}, storagemodels.ApplyReplayOptions(storagemodels.WithThreads(1), storagemodels.WithBufferSize(1)))

	// one record in the worker, one in the buffer
	require.NoError(t, p.Push(context.Background(), item(t, 1, "a"), nil))
	<-started
	require.NoError(t, p.Push(context.Background(), item(t, 2, "b"), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Push(ctx, item(t, 3, "c"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	p.Close()
	stats := p.Wait()
	assert.Equal(t, int64(2), stats.Enqueued)
	assert.Equal(t, int64(2), stats.Processed)
}

func TestPoolBestEffortCountsHandlerErrors(t *testing.T) {
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		if string(rec.Data) == "bad" {
			return fmt.Errorf("write refused")
		}
		return nil
	}, storagemodels.DefaultReplayOptions())

	var errs []error
	var mu sync.Mutex
	collect := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.NoError(t, p.Push(context.Background(), item(t, 1, "good"), collect))
	require.NoError(t, p.Push(context.Background(), item(t, 2, "bad"), collect))
	require.NoError(t, p.Push(context.Background(), item(t, 3, "good"), collect))
	p.Close()
	stats := p.Wait()

	assert.Equal(t, int64(3), stats.Processed)
	assert.Equal(t, int64(1), stats.HandlerErrors)
	assert.NoError(t, p.Err(), "best-effort pools never abort")
	require.Len(t, errs, 1)
	assert.True(t, errors.IsHandlerError(errs[0]))
	var he *errors.HandlerError
	require.ErrorAs(t, errs[0], &he)
	assert.Equal(t, "seq-2", he.SequenceNumber)
}

func TestPoolFailFastAborts(t *testing.T) {
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		if string(rec.Data) == "bad" {
			return fmt.Errorf("write refused")
		}
		return nil
	}, storagemodels.ApplyReplayOptions(storagemodels.WithFailFast(true), storagemodels.WithBufferSize(10)))

	require.NoError(t, p.Push(context.Background(), item(t, 1, "bad"), nil))
	<-p.Context().Done()

	err := p.Push(context.Background(), item(t, 2, "good"), nil)
	assert.True(t, errors.IsHandlerError(err), "push after abort reports the cause")

	p.Close()
	stats := p.Wait()
	assert.Equal(t, int64(1), stats.HandlerErrors)
	assert.True(t, errors.IsHandlerError(p.Err()))
}

func TestPoolUndecodableItem(t *testing.T) {
	called := false
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		called = true
		return nil
	}, storagemodels.DefaultReplayOptions())

	bad := map[string]types.AttributeValue{
		"partitionKey": &types.AttributeValueMemberS{Value: "p1"},
		"recordData":   &types.AttributeValueMemberS{Value: "%%%not-base64"},
	}
	require.NoError(t, p.Push(context.Background(), bad, nil))
	p.Close()
	stats := p.Wait()

	assert.False(t, called)
	assert.Equal(t, int64(1), stats.HandlerErrors)
}

func TestPoolHandlerPanic(t *testing.T) {
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		panic("boom")
	}, storagemodels.DefaultReplayOptions())

	require.NoError(t, p.Push(context.Background(), item(t, 1, "x"), nil))
	p.Close()
	assert.Equal(t, int64(1), p.Wait().HandlerErrors)
}

func TestPoolOnDrained(t *testing.T) {
	gate := make(chan struct{})
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		<-gate
		return nil
	}, storagemodels.DefaultReplayOptions())

	drained := make(chan struct{}, 4)
	p.OnDrained(func() { drained <- struct{}{} })

	require.NoError(t, p.Push(context.Background(), item(t, 1, "x"), nil))
	gate <- struct{}{}
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("drained event not delivered")
	}

	// the pool drains again after more work arrives
	require.NoError(t, p.Push(context.Background(), item(t, 2, "y"), nil))
	gate <- struct{}{}
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("second drained event not delivered")
	}

	p.Close()
	p.Wait()
}

func TestPoolPushAfterClose(t *testing.T) {
	p := New(context.Background(), "test", func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		return nil
	}, storagemodels.DefaultReplayOptions())
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Push(context.Background(), item(t, 1, "x"), nil), ErrClosed)
	p.Wait()
}
