/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package replay reads archived stream records back out of the archive table
and hands them to a handler, or writes them back to a stream.

Each operation resolves the stream's archive configuration once, then pages
through the table strictly in order, pushing every item into a bounded
pool.Pool. Push blocks while the pool is full, so a slow handler slows the
scan down rather than growing memory. The operation returns once the
producer has pushed its last item and the pool has finished every record.

	engine := replay.NewEngine(store, resolver, writer)
	outcome, err := engine.ScanToReinject(ctx,
	    storagemodels.ScanRequest{StreamName: "orders", SequenceStart: "4959..."},
	    storagemodels.ReinjectOptions{TargetStream: "orders-replay", IncludeMetadata: true},
	    storagemodels.WithThreads(8),
	)

Handler failures are counted in Outcome.HandlerErrors and do not fail the
operation. Pass storagemodels.WithFailFast(true) to stop on the first one.
*/
package replay
