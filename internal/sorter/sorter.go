// Package sorter is the stateful façade over digest, spool, merge, and
// validate: add rows, sort them with bounded memory, then stream the
// result out as batches or a COPY BINARY file.
package sorter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/flatsort/flatsort/internal/digest"
	"github.com/flatsort/flatsort/internal/errorlog"
	"github.com/flatsort/flatsort/internal/errs"
	"github.com/flatsort/flatsort/internal/merge"
	"github.com/flatsort/flatsort/internal/record"
	"github.com/flatsort/flatsort/internal/spool"
	"github.com/flatsort/flatsort/internal/validate"
)

type state int32

const (
	stateConfiguring state = iota
	stateAccumulating
	stateSorted
	stateFailed
)

// Sorter is the external merge-sort engine described in spec §4.5. It
// is not safe for concurrent mutation from multiple goroutines;
// independent Sorter instances may run in parallel.
type Sorter struct {
	cfg    Config
	logger *zap.Logger

	state   atomic.Int32
	seq     atomic.Uint64
	buf     *spool.Buffer
	tempDir string

	mu     sync.Mutex
	schema *validate.Schema
	errLog *errorlog.Log

	totalProcessed atomic.Int64
	failedURL      atomic.Int64
	failedProtocol atomic.Int64

	finalInMemory []record.Record
	finalRunPath  string
	totalRows     int64
}

// New constructs a Sorter in the Configuring state.
func New(cfg Config) (*Sorter, error) {
	if len(cfg.KeyColumns) == 0 {
		return nil, fmt.Errorf("sorter: key_columns is required: %w", errs.ErrInvalidInput)
	}
	if cfg.GeoColumns != nil && len(cfg.GeoColumns) != 2 {
		return nil, fmt.Errorf("sorter: geo_columns must have exactly 2 indices: %w", errs.ErrInvalidInput)
	}

	resolved := cfg.withDefaults()

	tempDir := resolved.TempDir
	if tempDir == "" {
		d, err := os.MkdirTemp("", "flatsort-*")
		if err != nil {
			return nil, fmt.Errorf("sorter: creating temp dir: %w", errs.ErrIO)
		}
		tempDir = d
	} else if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("sorter: creating temp dir %s: %w", tempDir, errs.ErrIO)
	}

	s := &Sorter{
		cfg:     resolved,
		logger:  resolved.Logger,
		tempDir: tempDir,
		buf:     spool.New(tempDir, resolved.SpillCodec, resolved.bufferBytes(), resolved.Logger),
	}

	if resolved.ErrorLogPath != "" {
		l, err := errorlog.Open(resolved.ErrorLogPath)
		if err != nil {
			return nil, err
		}
		s.errLog = l
	}

	return s, nil
}

// SetValidationSchema installs per-column validators. Valid before
// Sort runs.
func (s *Sorter) SetValidationSchema(schema *validate.Schema) error {
	st := state(s.state.Load())
	if st != stateConfiguring && st != stateAccumulating {
		return fmt.Errorf("sorter: cannot set validation schema in current state: %w", errs.ErrStateError)
	}
	s.mu.Lock()
	s.schema = schema
	s.mu.Unlock()
	return nil
}

// AddRow validates, digests, and appends row, auto-assigning the next
// sequence number. It returns (false, nil) for a row rejected by
// validation — that is not an error, per spec §7's recovery policy.
func (s *Sorter) AddRow(row []string) (bool, error) {
	return s.addRow(row, s.seq.Add(1))
}

// AddRowWithSequence is AddRow with caller-supplied sequence, used by
// AddFile to pass the CSV line index.
func (s *Sorter) AddRowWithSequence(row []string, seq uint64) (bool, error) {
	return s.addRow(row, seq)
}

func (s *Sorter) addRow(row []string, seq uint64) (bool, error) {
	st := state(s.state.Load())
	if st != stateConfiguring && st != stateAccumulating {
		return false, fmt.Errorf("sorter: AddRow called in current state: %w", errs.ErrStateError)
	}

	rowIndex := s.totalProcessed.Add(1)

	s.mu.Lock()
	schema := s.schema
	s.mu.Unlock()

	if schema != nil {
		for i := 0; i < len(schema.Rules) && i < len(row); i++ {
			rule := schema.RuleFor(i)
			if err := rule.Check(schema.ColumnIdentifier(i), row[i]); err != nil {
				switch rule.Kind() {
				case validate.KindURL:
					s.failedURL.Add(1)
				case validate.KindProtocol:
					s.failedProtocol.Add(1)
				}
				if s.errLog != nil {
					_ = s.errLog.Append(err.Error(), int(rowIndex), schema.ColumnIdentifier(i))
				}
				return false, nil
			}
		}
	}

	d, err := digest.Of(row, s.cfg.KeyColumns)
	if err != nil {
		s.fail()
		return false, err
	}

	if err := s.buf.Append(record.Record{Digest: d, Row: row, Seq: seq}); err != nil {
		s.fail()
		return false, fmt.Errorf("sorter: appending row: %w", errs.ErrIO)
	}

	s.state.CompareAndSwap(int32(stateConfiguring), int32(stateAccumulating))
	return true, nil
}

// Sort flushes and merges all admitted rows into final sort order,
// applying the dedup cap, and transitions to the Sorted state.
func (s *Sorter) Sort() (Stats, error) {
	st := state(s.state.Load())
	if st != stateConfiguring && st != stateAccumulating {
		return Stats{}, fmt.Errorf("sorter: Sort called in current state: %w", errs.ErrStateError)
	}

	var err error
	if len(s.buf.RunPaths()) == 0 {
		err = s.sortInMemory()
	} else {
		err = s.sortByMerge()
	}
	if err != nil {
		s.fail()
		return Stats{}, err
	}

	if s.errLog != nil {
		_ = s.errLog.Close()
		s.errLog = nil
	}

	s.state.Store(int32(stateSorted))
	return s.Stats(), nil
}

func (s *Sorter) sortInMemory() error {
	recs := append([]record.Record(nil), s.buf.Pending()...)
	sort.Slice(recs, func(i, j int) bool { return record.Less(recs[i], recs[j]) })
	deduped := capInPlace(recs, s.cfg.maxPerKey())
	s.finalInMemory = deduped
	s.totalRows = int64(len(deduped))
	return nil
}

// capInPlace applies the per-digest retention cap to an
// already-sorted (ascending digest, descending seq) slice.
func capInPlace(recs []record.Record, maxPerKey int) []record.Record {
	if maxPerKey <= 0 {
		return recs
	}
	out := recs[:0]
	var curDigest string
	var count int
	haveDigest := false
	for _, rec := range recs {
		if !haveDigest || rec.Digest != curDigest {
			curDigest = rec.Digest
			count = 0
			haveDigest = true
		}
		count++
		if count > maxPerKey {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *Sorter) sortByMerge() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}

	runPaths := s.buf.RunPaths()
	sources := make([]merge.Source, 0, len(runPaths))
	closeAll := func() {
		for _, src := range sources {
			src.Close()
		}
	}
	for _, p := range runPaths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return fmt.Errorf("sorter: opening run %s: %w", p, errs.ErrIO)
		}
		rr, err := record.NewRunReader(f, s.buf.Codec())
		if err != nil {
			f.Close()
			closeAll()
			return err
		}
		sources = append(sources, rr)
	}

	m, err := merge.New(sources)
	if err != nil {
		closeAll()
		return fmt.Errorf("sorter: initializing merge: %w", errs.ErrCorruptRun)
	}
	deduped := merge.NewDedup(m, s.cfg.maxPerKey())

	finalPath := filepath.Join(s.tempDir, "final.run")
	out, err := os.Create(finalPath)
	if err != nil {
		deduped.Close()
		return fmt.Errorf("sorter: creating final run: %w", errs.ErrIO)
	}
	w, err := record.NewRunWriter(out, s.buf.Codec())
	if err != nil {
		deduped.Close()
		out.Close()
		return err
	}

	var count int64
	for {
		rec, err := deduped.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Close()
			deduped.Close()
			os.Remove(finalPath)
			return err
		}
		if err := w.Write(rec); err != nil {
			deduped.Close()
			os.Remove(finalPath)
			return fmt.Errorf("sorter: writing final run: %w", errs.ErrIO)
		}
		count++
	}

	if err := w.Close(); err != nil {
		deduped.Close()
		return fmt.Errorf("sorter: closing final run: %w", errs.ErrIO)
	}
	deduped.Close()
	s.buf.Cleanup()

	s.finalRunPath = finalPath
	s.totalRows = count
	return nil
}

// Stats returns a snapshot of the counters tracked so far.
func (s *Sorter) Stats() Stats {
	return Stats{
		TotalRows:                s.totalRows,
		TotalRowsProcessed:       s.totalProcessed.Load(),
		FailedURLErrorCount:      s.failedURL.Load(),
		FailedProtocolErrorCount: s.failedProtocol.Load(),
	}
}

func (s *Sorter) fail() {
	s.state.Store(int32(stateFailed))
}

// Close removes temp run files and closes the error log, if any. Safe
// to call more than once and after any state.
func (s *Sorter) Close() error {
	s.buf.Cleanup()
	if s.finalRunPath != "" {
		os.Remove(s.finalRunPath)
		s.finalRunPath = ""
	}
	if s.errLog != nil {
		err := s.errLog.Close()
		s.errLog = nil
		return err
	}
	return nil
}
