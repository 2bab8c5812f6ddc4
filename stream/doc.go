/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package stream writes reinjected records to a destination stream.

A Writer puts one payload under a partition key. Writers are created by type
through the factory registry:

	w, err := stream.NewWriter(ctx, "kinesis", stream.Config{AWS: awsCfg})

The built-in types are kinesis, kafka, nats and memory. Additional types can
be registered with RegisterWriter, typically from an init function.
*/
package stream
