/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/suparena/kinesisarchive/pool"
	"github.com/suparena/kinesisarchive/storagemodels"
)

// LineHandler writes each decoded payload as one line on w. Writes are
// serialised so concurrent workers never interleave lines.
func LineHandler(w io.Writer) pool.Handler {
	var mu sync.Mutex
	return func(ctx context.Context, rec *storagemodels.DecodedRecord) error {
		mu.Lock()
		defer mu.Unlock()

		if _, err := w.Write(rec.Data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
}

// FileFormat selects how FileHandler serialises records
type FileFormat string

const (
	FormatRaw     FileFormat = "raw"     // payload bytes, one line per record
	FormatJSON    FileFormat = "json"    // JSON lines of FileRecord
	FormatMsgpack FileFormat = "msgpack" // concatenated msgpack FileRecord values
)

// ParseFileFormat validates a format name
func ParseFileFormat(s string) (FileFormat, error) {
	switch f := FileFormat(s); f {
	case FormatRaw, FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatRaw, nil
	}
	return "", fmt.Errorf("unknown file format %q", s)
}

// FileRecord is the serialised form of a record in json and msgpack files
type FileRecord struct {
	PartitionKey                string      `json:"partitionKey" msgpack:"partitionKey"`
	SequenceNumber              string      `json:"sequenceNumber,omitempty" msgpack:"sequenceNumber,omitempty"`
	ShardID                     string      `json:"shardId" msgpack:"shardId"`
	ApproximateArrivalTimestamp json.Number `json:"approximateArrivalTimestamp" msgpack:"approximateArrivalTimestamp"`
	LastUpdate                  string      `json:"lastUpdate,omitempty" msgpack:"lastUpdate,omitempty"`
	Data                        []byte      `json:"data" msgpack:"data"`
}

// FileHandler writes decoded records to a file. It must be closed after the
// operation has finished to flush buffered output.
type FileHandler struct {
	mu     sync.Mutex
	format FileFormat
	file   io.Closer
	zw     *zstd.Encoder
	bw     *bufio.Writer
	enc    *msgpack.Encoder
	jenc   *json.Encoder
}

// NewFileHandler creates path, truncating it. When compress is set the
// stream is zstd compressed.
func NewFileHandler(path string, format FileFormat, compress bool) (*FileHandler, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	h, err := newFileHandler(f, format, compress)
	if err != nil {
		f.Close()
		return nil, err
	}
	return h, nil
}

func newFileHandler(w io.WriteCloser, format FileFormat, compress bool) (*FileHandler, error) {
	switch format {
	case FormatRaw, FormatJSON, FormatMsgpack:
	default:
		return nil, fmt.Errorf("unknown file format %q", format)
	}
	h := &FileHandler{format: format, file: w}

	var out io.Writer = w
	if compress {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		h.zw = zw
		out = zw
	}
	h.bw = bufio.NewWriter(out)

	switch format {
	case FormatRaw:
	case FormatJSON:
		h.jenc = json.NewEncoder(h.bw)
	case FormatMsgpack:
		h.enc = msgpack.NewEncoder(h.bw)
	}
	return h, nil
}

// Handle is a pool.Handler
func (h *FileHandler) Handle(ctx context.Context, rec *storagemodels.DecodedRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.format {
	case FormatJSON:
		return h.jenc.Encode(fileRecord(rec))
	case FormatMsgpack:
		return h.enc.Encode(fileRecord(rec))
	default:
		if _, err := h.bw.Write(rec.Data); err != nil {
			return err
		}
		return h.bw.WriteByte('\n')
	}
}

// Close flushes buffered output and closes the file
func (h *FileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.bw.Flush(); err != nil {
		h.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if h.zw != nil {
		if err := h.zw.Close(); err != nil {
			h.file.Close()
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}
	return h.file.Close()
}

func fileRecord(rec *storagemodels.DecodedRecord) FileRecord {
	return FileRecord{
		PartitionKey:                rec.PartitionKey,
		SequenceNumber:              rec.SequenceNumber,
		ShardID:                     rec.ShardID,
		ApproximateArrivalTimestamp: rec.ApproximateArrivalTimestamp,
		LastUpdate:                  rec.LastUpdate,
		Data:                        rec.Data,
	}
}
