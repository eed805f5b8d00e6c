package record

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunWriterReaderRoundTrip(t *testing.T) {
	for _, codecName := range []string{CodecNone, CodecLZ4, CodecZstd} {
		codecName := codecName
		t.Run(codecName, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "run.tmp")

			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			w, err := NewRunWriter(f, codecName)
			if err != nil {
				t.Fatal(err)
			}

			want := []Record{
				{Digest: "0d1a3778431c4f1daffc613e793225ca2fee71c4", Row: []string{"3", "1"}, Seq: 3},
				{Digest: "3c9db9ba838cbefabdbd7ce6c6ca549d3f0e6743", Row: []string{"1", "3"}, Seq: 2},
				{Digest: "6ea87ee6f25f25d1e14c442a890eda7c722bca7a", Row: []string{"1", "2"}, Seq: 1},
			}
			for _, rec := range want {
				if err := w.Write(rec); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			rf, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			r, err := NewRunReader(rf, codecName)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()

			for i, wantRec := range want {
				got, err := r.Next()
				if err != nil {
					t.Fatalf("record %d: %v", i, err)
				}
				if got.Digest != wantRec.Digest || got.Seq != wantRec.Seq {
					t.Errorf("record %d: got %+v, want %+v", i, got, wantRec)
				}
			}
			if _, err := r.Next(); err == nil {
				t.Error("expected EOF after last record")
			}
		})
	}
}
