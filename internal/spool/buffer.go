// Package spool holds the in-memory row accumulator that spills sorted
// runs to disk once a memory budget is exceeded — the teacher's
// Sorter.flushChunk, generalized to variable-length digest/row/sequence
// Records and a pluggable spill codec.
package spool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/flatsort/flatsort/internal/record"
)

// perRecordOverhead is the constant added per record on top of field
// byte lengths when estimating buffer footprint. Exact accounting is
// not required by the contract; this is a soft cap.
const perRecordOverhead = 48

// Buffer accumulates Records in memory, flushing a sorted run to a
// temp file whenever the estimated footprint exceeds bufferBytes.
type Buffer struct {
	tempDir     string
	codec       string
	bufferBytes int64
	logger      *zap.Logger

	records   []record.Record
	footprint int64
	runPaths  []string
	runSeq    int
}

// New creates a Buffer that spills into tempDir using codecName.
func New(tempDir, codecName string, bufferBytes int64, logger *zap.Logger) *Buffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{tempDir: tempDir, codec: codecName, bufferBytes: bufferBytes, logger: logger}
}

func estimate(rec record.Record) int64 {
	n := int64(len(rec.Digest)) + perRecordOverhead
	for _, f := range rec.Row {
		n += int64(len(f))
	}
	return n
}

// Append admits rec to the buffer, flushing a run first if doing so
// would push the buffer over budget.
func (b *Buffer) Append(rec record.Record) error {
	sz := estimate(rec)
	if len(b.records) > 0 && b.footprint+sz > b.bufferBytes {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.records = append(b.records, rec)
	b.footprint += sz
	return nil
}

// Flush sorts the current buffer (ascending digest, descending
// sequence) and appends it to a freshly created run file. A no-op if
// the buffer is empty.
func (b *Buffer) Flush() error {
	if len(b.records) == 0 {
		return nil
	}

	sort.Slice(b.records, func(i, j int) bool {
		return record.Less(b.records[i], b.records[j])
	})

	path := filepath.Join(b.tempDir, fmt.Sprintf("run-%05d.tmp", b.runSeq))
	b.runSeq++

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spool: creating run file: %w", err)
	}
	w, err := record.NewRunWriter(f, b.codec)
	if err != nil {
		f.Close()
		return err
	}
	for _, rec := range b.records {
		if err := w.Write(rec); err != nil {
			w.Close()
			return fmt.Errorf("spool: writing run file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("spool: closing run file: %w", err)
	}

	b.logger.Debug("flushed spill run",
		zap.String("path", path),
		zap.Int("records", len(b.records)),
		zap.Int64("bytes", b.footprint),
	)

	b.runPaths = append(b.runPaths, path)
	b.records = b.records[:0]
	b.footprint = 0
	return nil
}

// Pending returns the records currently held in memory, not yet
// spilled. The caller must not retain the slice past the next Append
// or Flush.
func (b *Buffer) Pending() []record.Record { return b.records }

// RunPaths returns the paths of run files spilled so far.
func (b *Buffer) RunPaths() []string { return b.runPaths }

// Codec returns the codec name runs were written with.
func (b *Buffer) Codec() string { return b.codec }

// Cleanup removes every spilled run file. Safe to call more than once.
func (b *Buffer) Cleanup() {
	for _, p := range b.runPaths {
		os.Remove(p)
	}
	b.runPaths = nil
}
