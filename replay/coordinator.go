/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"sync"
	"sync/atomic"

	"github.com/jizhuozhi/go-future"
	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/pool"
)

// coordinator joins the producer's "no more items" signal with the pool's
// "every item done" barrier. A drained pool alone never completes an
// operation: the queue may empty between two pages.
type coordinator struct {
	name     string
	producer *future.Promise[driveResult]
	once     sync.Once
	finished atomic.Bool
	drains   atomic.Int64
}

func newCoordinator(name string) *coordinator {
	return &coordinator{
		name:     name,
		producer: future.NewPromise[driveResult](),
	}
}

// producerDone resolves the producer side. Only the first call has effect.
func (c *coordinator) producerDone(result driveResult, err error) {
	c.once.Do(func() {
		c.finished.Store(true)
		c.producer.Set(result, err)
	})
}

// drained is registered as the pool's drained hook
func (c *coordinator) drained() {
	c.drains.Add(1)
	if !c.finished.Load() {
		log.Trace().Str("operation", c.name).Msg("Pool drained while producer is still paging")
	}
}

// await blocks until the producer has finished, then closes the pool and
// waits for every accepted record to be done.
func (c *coordinator) await(p *pool.Pool) (driveResult, pool.Stats, error) {
	result, err := c.producer.Future().Get()
	p.Close()
	stats := p.Wait()
	return result, stats, err
}
