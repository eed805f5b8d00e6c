// Package merge implements the k-way streaming merge of sorted run
// files (plus an optional in-memory tail run) into the sorter's final
// output order, with an optional per-digest retention cap.
//
// The heap here is a manual binary heap rather than container/heap,
// mirroring the teacher's manualHeap in internal/indexer/sorter.go:
// container/heap boxes each element through the heap.Interface, which
// allocates on every push/pop for a value type like Record.
package merge

import (
	"io"

	"github.com/flatsort/flatsort/internal/record"
)

// Source yields Records in ascending (digest, -sequence) order. Next
// returns io.EOF once exhausted.
type Source interface {
	Next() (record.Record, error)
	Close() error
}

// SliceSource adapts an already-sorted in-memory slice to Source.
type SliceSource struct {
	records []record.Record
	pos     int
}

// NewSliceSource wraps records, which must already be sorted by
// record.Less.
func NewSliceSource(records []record.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (record.Record, error) {
	if s.pos >= len(s.records) {
		return record.Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *SliceSource) Close() error { return nil }

type item struct {
	rec    record.Record
	source int
}

func (a item) less(b item) bool {
	if a.rec.Digest != b.rec.Digest {
		return a.rec.Digest < b.rec.Digest
	}
	if a.rec.Seq != b.rec.Seq {
		return a.rec.Seq > b.rec.Seq
	}
	// Tie-break by source to keep the heap a strict (non-reflexive)
	// order even when two sources hold identical (digest, seq) pairs.
	return a.source < b.source
}

type minHeap []item

func (h minHeap) len() int { return len(h) }

func (h *minHeap) push(x item) {
	*h = append(*h, x)
	h.up(len(*h) - 1)
}

func (h *minHeap) pop() item {
	old := *h
	n := len(old)
	top := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]
	h.down(0, n-1)
	return top
}

func (h *minHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !(*h)[j].less((*h)[i]) {
			break
		}
		(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
		j = i
	}
}

func (h *minHeap) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && (*h)[j2].less((*h)[j1]) {
			j = j2
		}
		if !(*h)[j].less((*h)[i]) {
			break
		}
		(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
		i = j
	}
}

// Merger performs the k-way merge across a set of Sources.
type Merger struct {
	sources []Source
	h       minHeap
}

// New builds a Merger over sources, reading one Record from each to
// seed the heap. A source returning a non-EOF error from its first
// Next surfaces immediately.
func New(sources []Source) (*Merger, error) {
	m := &Merger{sources: sources, h: make(minHeap, 0, len(sources))}
	for i, s := range sources {
		rec, err := s.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.h = append(m.h, item{rec: rec, source: i})
	}
	n := len(m.h)
	for i := n/2 - 1; i >= 0; i-- {
		m.h.down(i, n)
	}
	return m, nil
}

// Next yields the next Record in final sort order, or io.EOF once
// every source is exhausted.
func (m *Merger) Next() (record.Record, error) {
	if m.h.len() == 0 {
		return record.Record{}, io.EOF
	}
	top := m.h.pop()

	next, err := m.sources[top.source].Next()
	if err == nil {
		m.h.push(item{rec: next, source: top.source})
	} else if err != io.EOF {
		return record.Record{}, err
	}

	return top.rec, nil
}

// Close closes every underlying source.
func (m *Merger) Close() error {
	var first error
	for _, s := range m.sources {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
