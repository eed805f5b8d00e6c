// Package record defines the on-disk Record framing used by spilled
// runs, and the codecs that compress a run file's byte stream.
package record

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flatsort/flatsort/internal/digest"
	"github.com/flatsort/flatsort/internal/errs"
)

// Record is a (digest, row, sequence) triple: one admitted row plus the
// digest of its key columns and the sequence used to break ties
// between equal digests.
type Record struct {
	Digest string
	Row    []string
	Seq    uint64
}

// Less orders Records ascending by digest, then descending by Seq —
// the order a run file is sorted in, and the order the k-way merge
// heap reproduces across runs.
func Less(a, b Record) bool {
	if a.Digest != b.Digest {
		return a.Digest < b.Digest
	}
	return a.Seq > b.Seq
}

// Write encodes rec as:
//
//	digest(40 bytes ASCII) seq(u64 LE) field_count(u32 LE) field*
//	field := len(u32 LE) bytes(len)
func Write(w io.Writer, rec Record) error {
	if len(rec.Digest) != digest.Len {
		return fmt.Errorf("record: digest %q is not %d characters: %w", rec.Digest, digest.Len, errs.ErrCorruptRun)
	}

	var head [12]byte
	binary.LittleEndian.PutUint64(head[0:8], rec.Seq)
	binary.LittleEndian.PutUint32(head[8:12], uint32(len(rec.Row)))

	if _, err := io.WriteString(w, rec.Digest); err != nil {
		return err
	}
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	var lenBuf [4]byte
	for _, field := range rec.Row {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(field)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, field); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes one Record from r, returning io.EOF (unwrapped) when r
// is exhausted at a record boundary. Any other error, including a
// short read mid-record or a non-hex digest, is wrapped in
// errs.ErrCorruptRun.
func Read(r io.Reader) (Record, error) {
	var digestBuf [digest.Len]byte
	if _, err := io.ReadFull(r, digestBuf[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("record: reading digest: %w", errs.ErrCorruptRun)
	}
	d := string(digestBuf[:])
	if !digest.Valid(d) {
		return Record{}, fmt.Errorf("record: %q is not a valid digest: %w", d, errs.ErrCorruptRun)
	}

	var head [12]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Record{}, fmt.Errorf("record: reading header: %w", errs.ErrCorruptRun)
	}
	seq := binary.LittleEndian.Uint64(head[0:8])
	fieldCount := binary.LittleEndian.Uint32(head[8:12])

	row := make([]string, fieldCount)
	var lenBuf [4]byte
	for i := range row {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return Record{}, fmt.Errorf("record: reading field %d length: %w", i, errs.ErrCorruptRun)
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Record{}, fmt.Errorf("record: reading field %d: %w", i, errs.ErrCorruptRun)
		}
		row[i] = string(buf)
	}

	return Record{Digest: d, Row: row, Seq: seq}, nil
}
