package sorter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/flatsort/flatsort/internal/errs"
)

// AddFile parses an RFC 4180 CSV file at path, skips the header row,
// and calls AddRow for each data row with sequence set to the row's
// 1-based line index (the header counts as line 1). A zero-byte file
// is rejected; a header-only file adds zero rows without error.
func (s *Sorter) AddFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sorter: opening %s: %w", path, errs.ErrIO)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("sorter: stat %s: %w", path, errs.ErrIO)
	}
	if stat.Size() == 0 {
		return fmt.Errorf("sorter: %s has no headers: %w", path, errs.ErrInvalidInput)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows are not required to share field count

	lineIndex := uint64(1)
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return fmt.Errorf("sorter: %s has no headers: %w", path, errs.ErrInvalidInput)
		}
		return fmt.Errorf("sorter: reading header of %s: %w", path, errs.ErrInvalidInput)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			s.fail()
			return fmt.Errorf("sorter: parsing %s: %w", path, errs.ErrInvalidInput)
		}
		lineIndex++
		if _, err := s.AddRowWithSequence(row, lineIndex); err != nil {
			return err
		}
	}
}
