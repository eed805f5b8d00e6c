package merge

import (
	"io"

	"github.com/flatsort/flatsort/internal/record"
)

// Dedup wraps a Merger, retaining at most maxPerKey Records per
// digest. Because the heap's secondary key is -sequence, the Records
// kept for each digest are always its highest-sequence ones: Next
// counts consecutive Records sharing a digest and silently discards
// any beyond the cap.
type Dedup struct {
	m          *Merger
	maxPerKey  int
	curDigest  string
	curCount   int
	haveDigest bool
}

// NewDedup wraps m with a per-digest cap. maxPerKey <= 0 disables
// capping (Next degenerates to m.Next).
func NewDedup(m *Merger, maxPerKey int) *Dedup {
	return &Dedup{m: m, maxPerKey: maxPerKey}
}

// Next returns the next surviving Record, or io.EOF.
func (d *Dedup) Next() (record.Record, error) {
	for {
		rec, err := d.m.Next()
		if err != nil {
			return record.Record{}, err
		}

		if !d.haveDigest || rec.Digest != d.curDigest {
			d.curDigest = rec.Digest
			d.curCount = 0
			d.haveDigest = true
		}
		d.curCount++

		if d.maxPerKey > 0 && d.curCount > d.maxPerKey {
			continue
		}
		return rec, nil
	}
}

// Close closes the underlying Merger.
func (d *Dedup) Close() error { return d.m.Close() }

var _ io.Closer = (*Dedup)(nil)
