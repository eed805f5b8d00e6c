package sorter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/flatsort/flatsort/internal/spool"
	"github.com/flatsort/flatsort/internal/validate"
)

func TestSimpleSort(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}, BufferMB: 100})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if ok, err := s.AddRow([]string{"1", "2", "3"}); !ok || err != nil {
		t.Fatalf("AddRow: ok=%v err=%v", ok, err)
	}
	if ok, err := s.AddRow([]string{"4", "5", "6"}); !ok || err != nil {
		t.Fatalf("AddRow: ok=%v err=%v", ok, err)
	}

	stats, err := s.Sort()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRows != 2 {
		t.Fatalf("TotalRows = %d, want 2", stats.TotalRows)
	}

	var batches [][]BatchItem
	if err := s.EachBatch(1, func(b []BatchItem) error {
		batches = append(batches, append([]BatchItem(nil), b...))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if len(batches[0]) != 1 || len(batches[1]) != 1 {
		t.Fatalf("expected batch size 1 throughout: %v", batches)
	}
	if batches[0][0].Digest > batches[1][0].Digest {
		t.Fatalf("batches not in ascending digest order: %v", batches)
	}
	seen := map[string]bool{batches[0][0].Row[0]: true, batches[1][0].Row[0]: true}
	if !seen["1"] || !seen["4"] {
		t.Fatalf("expected both rows present, got %v", batches)
	}
}

func TestCompoundKeyDigestOrdering(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	rows := [][]string{
		{"1", "2", "a"},
		{"1", "3", "b"},
		{"3", "1", "c"},
		{"2", "3", "d"},
	}
	for _, r := range rows {
		if ok, err := s.AddRow(r); !ok || err != nil {
			t.Fatalf("AddRow(%v): ok=%v err=%v", r, ok, err)
		}
	}
	if _, err := s.Sort(); err != nil {
		t.Fatal(err)
	}

	var digests []string
	var tags []string
	if err := s.EachBatch(10, func(b []BatchItem) error {
		for _, item := range b {
			digests = append(digests, item.Digest)
			tags = append(tags, item.Row[2])
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(digests) != 4 {
		t.Fatalf("got %d records, want 4", len(digests))
	}
	for i := 1; i < len(digests); i++ {
		if digests[i-1] > digests[i] {
			t.Fatalf("digests not ascending: %v", digests)
		}
	}
	wantTags := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	for _, tag := range tags {
		if !wantTags[tag] {
			t.Errorf("unexpected row %q in output", tag)
		}
		delete(wantTags, tag)
	}
	if len(wantTags) != 0 {
		t.Errorf("missing rows from output: %v", wantTags)
	}
}

func TestURLValidationRejectsAndCounts(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.SetValidationSchema(validate.New([]validate.Rule{validate.URL}, nil)); err != nil {
		t.Fatal(err)
	}

	ok, err := s.AddRow([]string{"https://example.com"})
	if err != nil || !ok {
		t.Fatalf("expected valid URL admitted, ok=%v err=%v", ok, err)
	}
	ok, err = s.AddRow([]string{"test.com"})
	if err != nil || ok {
		t.Fatalf("expected invalid URL rejected, ok=%v err=%v", ok, err)
	}

	stats, err := s.Sort()
	if err != nil {
		t.Fatal(err)
	}
	if stats.FailedURLErrorCount != 1 {
		t.Errorf("FailedURLErrorCount = %d, want 1", stats.FailedURLErrorCount)
	}
	if stats.TotalRowsProcessed != 2 {
		t.Errorf("TotalRowsProcessed = %d, want 2", stats.TotalRowsProcessed)
	}
	if stats.TotalRows != 1 {
		t.Errorf("TotalRows = %d, want 1", stats.TotalRows)
	}
}

func TestDedupCap300To200ViaDiskMerge(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	// Replace the buffer with one carrying a tiny byte budget so 300
	// rows force several spilled runs and Sort exercises the k-way
	// merge path, not the pure in-memory path.
	s.buf = spool.New(s.tempDir, s.cfg.SpillCodec, 256, s.logger)

	for i := 1; i <= 300; i++ {
		row := []string{"same-key", fmt.Sprintf("value-%d", i)}
		if ok, err := s.AddRow(row); !ok || err != nil {
			t.Fatalf("AddRow %d: ok=%v err=%v", i, ok, err)
		}
	}

	stats, err := s.Sort()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRows != 200 {
		t.Fatalf("TotalRows = %d, want 200", stats.TotalRows)
	}

	seen := map[int]bool{}
	count := 0
	if err := s.EachBatch(32, func(b []BatchItem) error {
		for _, item := range b {
			count++
			var n int
			fmt.Sscanf(item.Row[1], "value-%d", &n)
			seen[n] = true
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if count != 200 {
		t.Fatalf("iterated %d records, want 200", count)
	}
	for n := 1; n <= 100; n++ {
		if seen[n] {
			t.Fatalf("expected value-%d to be evicted by the cap, but it survived", n)
		}
	}
	for n := 101; n <= 300; n++ {
		if !seen[n] {
			t.Fatalf("expected value-%d to survive the cap", n)
		}
	}
}

func TestEmptyFileRejected(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFile(path); err == nil {
		t.Fatal("expected error for zero-byte input")
	}
}

func TestHeaderOnlyFileAddsNoRows(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	path := filepath.Join(t.TempDir(), "header_only.csv")
	if err := os.WriteFile(path, []byte("a,b,c\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFile(path); err != nil {
		t.Fatalf("unexpected error for header-only file: %v", err)
	}

	stats, err := s.Sort()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRows != 0 {
		t.Errorf("TotalRows = %d, want 0", stats.TotalRows)
	}
}

func TestAddRowAfterSortFails(t *testing.T) {
	s, err := New(Config{KeyColumns: []int{0}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if ok, err := s.AddRow([]string{"1"}); !ok || err != nil {
		t.Fatal(err)
	}
	if _, err := s.Sort(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddRow([]string{"2"}); err == nil {
		t.Fatal("expected AddRow after Sort to fail")
	}
}
