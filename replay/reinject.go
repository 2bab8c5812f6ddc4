/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/suparena/kinesisarchive/pool"
	"github.com/suparena/kinesisarchive/storagemodels"
	"github.com/suparena/kinesisarchive/stream"
)

// DefaultMetadataSeparator frames the metadata envelope when none is configured
const DefaultMetadataSeparator = "|"

// Envelope describes where a reinjected record originally came from. Field
// order is the order of the serialised JSON object.
type Envelope struct {
	OriginalApproximateArrivalTimestamp json.Number `json:"originalApproximateArrivalTimestamp"`
	OriginalShardID                     string      `json:"originalShardId"`
	OriginalSequenceNumber              string      `json:"originalSequenceNumber"`
	OriginalStreamName                  string      `json:"originalStreamName,omitempty"`
}

// ReinjectEncoder rebuilds the payload written back to a destination stream
type ReinjectEncoder struct {
	source  string
	options storagemodels.ReinjectOptions
}

// NewReinjectEncoder creates an encoder for records archived from source
func NewReinjectEncoder(source string, options storagemodels.ReinjectOptions) *ReinjectEncoder {
	if options.IncludeMetadata && options.MetadataSeparator == "" {
		options.MetadataSeparator = DefaultMetadataSeparator
	}
	return &ReinjectEncoder{source: source, options: options}
}

// Destination is the target stream, or the source stream when no target is set
func (e *ReinjectEncoder) Destination() string {
	if e.options.TargetStream != "" {
		return e.options.TargetStream
	}
	return e.source
}

// includesStreamName reports whether the envelope names the source stream.
// It does unless the record goes back to the stream it came from by name.
func (e *ReinjectEncoder) includesStreamName() bool {
	return e.options.TargetStream == "" || e.options.TargetStream != e.source
}

// Envelope builds the metadata envelope for rec
func (e *ReinjectEncoder) Envelope(rec *storagemodels.DecodedRecord) Envelope {
	env := Envelope{
		OriginalApproximateArrivalTimestamp: rec.ArrivalTimestamp(),
		OriginalShardID:                     rec.ShardID,
		OriginalSequenceNumber:              rec.SequenceNumber,
	}
	if e.includesStreamName() {
		env.OriginalStreamName = e.source
	}
	return env
}

// Encode returns the bytes to write for rec: the payload, prefixed with
// separator + JSON envelope + separator when metadata is included.
func (e *ReinjectEncoder) Encode(rec *storagemodels.DecodedRecord) ([]byte, error) {
	if !e.options.IncludeMetadata {
		return rec.Data, nil
	}

	envelope, err := json.Marshal(e.Envelope(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reinject metadata: %w", err)
	}

	sep := e.options.MetadataSeparator
	var buf bytes.Buffer
	buf.Grow(2*len(sep) + len(envelope) + len(rec.Data))
	buf.WriteString(sep)
	buf.Write(envelope)
	buf.WriteString(sep)
	buf.Write(rec.Data)
	return buf.Bytes(), nil
}

// Handler returns a pool handler writing every record to w. The partition
// key of the archived record is always preserved.
func (e *ReinjectEncoder) Handler(w stream.Writer) pool.Handler {
	destination := e.Destination()
	return func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		data, err := e.Encode(rec)
		if err != nil {
			return err
		}
		if err := w.Put(ctx, destination, rec.PartitionKey, data); err != nil {
			return err
		}

		log.Trace().
			Str("stream", destination).
			Str("partition_key", rec.PartitionKey).
			Str("sequence_number", rec.SequenceNumber).
			Msg("Reinjected record")
		return nil
	}
}
