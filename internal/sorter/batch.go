package sorter

import (
	"fmt"
	"io"
	"os"

	"github.com/flatsort/flatsort/internal/copybinary"
	"github.com/flatsort/flatsort/internal/errs"
	"github.com/flatsort/flatsort/internal/record"
)

// BatchItem is one [digest, row] pair yielded by EachBatch.
type BatchItem struct {
	Digest string
	Row    []string
}

// iterate walks the final sorted/deduped output, in order, calling fn
// once per Record. It always starts from the beginning: EachBatch's
// idempotent-restart guarantee falls out of that.
func (s *Sorter) iterate(fn func(record.Record) error) error {
	if s.finalInMemory != nil {
		for _, rec := range s.finalInMemory {
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	}
	if s.finalRunPath == "" {
		return nil
	}

	f, err := os.Open(s.finalRunPath)
	if err != nil {
		return fmt.Errorf("sorter: opening sorted output: %w", errs.ErrIO)
	}
	defer f.Close()

	rr, err := record.NewRunReader(f, s.buf.Codec())
	if err != nil {
		return err
	}
	defer rr.Close()

	for {
		rec, err := rr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// EachBatch calls fn with successive groups of at most n surviving
// Records, in final sort order. Each call restarts from the
// beginning.
func (s *Sorter) EachBatch(n int, fn func([]BatchItem) error) error {
	if state(s.state.Load()) != stateSorted {
		return fmt.Errorf("sorter: EachBatch called before Sort: %w", errs.ErrStateError)
	}
	if n < 1 {
		return fmt.Errorf("sorter: batch size must be >= 1: %w", errs.ErrInvalidInput)
	}

	batch := make([]BatchItem, 0, n)
	err := s.iterate(func(rec record.Record) error {
		batch = append(batch, BatchItem{Digest: rec.Digest, Row: rec.Row})
		if len(batch) < n {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// WriteBinaryPostgresFile encodes the sorted output as a PostgreSQL
// COPY BINARY stream at path.
func (s *Sorter) WriteBinaryPostgresFile(path string) error {
	if state(s.state.Load()) != stateSorted {
		return fmt.Errorf("sorter: WriteBinaryPostgresFile called before Sort: %w", errs.ErrStateError)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sorter: creating %s: %w", path, errs.ErrIO)
	}
	defer f.Close()

	enc, err := copybinary.NewEncoder(f, s.cfg.SourceKey, s.cfg.GeoColumns)
	if err != nil {
		return err
	}

	if err := s.iterate(func(rec record.Record) error {
		return enc.WriteRow(rec.Digest, rec.Row)
	}); err != nil {
		return err
	}
	return enc.Close()
}
