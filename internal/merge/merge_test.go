package merge

import (
	"io"
	"testing"

	"github.com/flatsort/flatsort/internal/record"
)

func recs(pairs ...[2]any) []record.Record {
	out := make([]record.Record, len(pairs))
	for i, p := range pairs {
		out[i] = record.Record{Digest: p[0].(string), Seq: uint64(p[1].(int))}
	}
	return out
}

func drain(t *testing.T, s interface {
	Next() (record.Record, error)
}) []record.Record {
	t.Helper()
	var out []record.Record
	for {
		rec, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, rec)
	}
}

func TestMergeOrdersAcrossSources(t *testing.T) {
	s1 := NewSliceSource(recs([2]any{"a", 1}, [2]any{"c", 1}))
	s2 := NewSliceSource(recs([2]any{"b", 1}, [2]any{"d", 1}))

	m, err := New([]Source{s1, s2})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, m)
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Digest != w {
			t.Errorf("position %d: got %s want %s", i, got[i].Digest, w)
		}
	}
}

func TestMergeNewestFirstAmongEqualDigest(t *testing.T) {
	s1 := NewSliceSource(recs([2]any{"a", 3}, [2]any{"a", 1}))
	s2 := NewSliceSource(recs([2]any{"a", 2}))

	m, err := New([]Source{s1, s2})
	if err != nil {
		t.Fatal(err)
	}
	got := drain(t, m)
	wantSeqs := []int{3, 2, 1}
	for i, w := range wantSeqs {
		if int(got[i].Seq) != w {
			t.Errorf("position %d: got seq %d want %d", i, got[i].Seq, w)
		}
	}
}

func TestDedupCapKeepsHighestSequence(t *testing.T) {
	// A Source yields (digest, -sequence) order, so within one digest
	// the records are listed newest first.
	var pairs [][2]any
	for seq := 300; seq >= 1; seq-- {
		pairs = append(pairs, [2]any{"same-key", seq})
	}
	s := NewSliceSource(recs(pairs...))

	m, err := New([]Source{s})
	if err != nil {
		t.Fatal(err)
	}
	d := NewDedup(m, 200)
	got := drain(t, d)
	if len(got) != 200 {
		t.Fatalf("got %d records, want 200", len(got))
	}
	for _, rec := range got {
		if rec.Seq < 101 || rec.Seq > 300 {
			t.Errorf("unexpected sequence %d survived cap", rec.Seq)
		}
	}
}

func TestDedupDisabledWhenCapIsZero(t *testing.T) {
	s := NewSliceSource(recs([2]any{"k", 1}, [2]any{"k", 2}, [2]any{"k", 3}))
	m, err := New([]Source{s})
	if err != nil {
		t.Fatal(err)
	}
	d := NewDedup(m, 0)
	got := drain(t, d)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3 (dedup disabled)", len(got))
	}
}
