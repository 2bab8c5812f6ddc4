/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package archive resolves the archive table and recovery mode of a stream.
//
// TagResolver reads the configuration from the stream's Kinesis tags, the way
// the archiver itself is configured. StaticResolver serves a fixed map. Both
// can be wrapped by CachingResolver for long-lived processes, and every
// replay operation wraps its resolver in an OperationCache so a stream is
// looked up at most once per operation.
package archive
