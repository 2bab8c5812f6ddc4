/*
Package errors provides semantic error types for the archive replay engine.

Errors fall into four groups:

  - ConfigurationError: the stream has no known archive. Fatal, raised before any I/O.
  - StoreRequestError: a Scan, Query or GetItem failed. Fatal, stops pagination.
  - HandlerError: one record could not be processed. Counted and logged; only
    surfaced to the caller when the operation runs in fail-fast mode.
  - ProtocolMisuseError: an operation was started without a record sink.

Usage:

	outcome, err := engine.ScanToSink(ctx, req, handler)
	if err != nil {
	    if errors.IsConfigurationError(err) {
	        // the stream is not archived
	    }
	    return err
	}
	log.Printf("%d handler failures", outcome.HandlerErrors)

Every typed error matches its sentinel through errors.Is and unwraps to its cause.
*/
package errors
