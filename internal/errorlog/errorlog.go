// Package errorlog implements the optional, append-only validation
// error log described in spec §6: a CSV file held open for the
// Sorter's lifetime, exclusively locked the way the teacher's
// internal/writer.CsvWriter locks its output file.
package errorlog

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Log is an append-only "Error Message,Row,Column" CSV file.
type Log struct {
	f *os.File
	w *csv.Writer
}

// Open creates path if it doesn't exist (writing the header row) or
// opens it for append, and takes an exclusive lock for the process
// lifetime of the Log.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("errorlog: opening %s: %w", path, err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("errorlog: locking %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		unlockFile(f)
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write([]string{"Error Message", "Row", "Column"}); err != nil {
			unlockFile(f)
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			unlockFile(f)
			f.Close()
			return nil, err
		}
	}

	return &Log{f: f, w: w}, nil
}

// Append records one validation failure: rowIndex is 1-based, column
// is the configured column name or, absent one, the 1-based column
// index rendered as a string.
func (l *Log) Append(message string, rowIndex int, column string) error {
	if err := l.w.Write([]string{message, fmt.Sprintf("%d", rowIndex), column}); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and unlocks the file.
func (l *Log) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		unlockFile(l.f)
		l.f.Close()
		return err
	}
	unlockFile(l.f)
	return l.f.Close()
}
