package sorter

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flatsort/flatsort/internal/record"
)

// Config configures a Sorter, following the teacher's IndexerConfig /
// WriterConfig pattern of a single struct passed to the constructor
// rather than functional options.
type Config struct {
	// SourceID and SourceKey are opaque strings carried through into
	// the COPY BINARY output. SourceKey is reflected in column 1;
	// SourceID has no semantic use beyond tracing (spec §9 Open
	// Questions). SourceID defaults to a generated UUID if empty;
	// SourceKey defaults to SourceID if empty.
	SourceID  string
	SourceKey string

	// KeyColumns is required: the ordered, possibly-repeating list of
	// 0-based column indices that make up the digest.
	KeyColumns []int

	// GeoColumns, if set, must name exactly [lon_idx, lat_idx].
	GeoColumns []int

	// BufferMB is the soft in-memory spill threshold. Default 100.
	BufferMB int

	// NoDedupe disables the per-digest retention cap. Zero value
	// (false) matches the spec's stated default of dedupe enabled
	// with MaxRecordsPerKey=200.
	NoDedupe bool

	// MaxRecordsPerKey caps Records retained per digest unless
	// NoDedupe is set. Default 200.
	MaxRecordsPerKey int

	// SpillCodec selects the run-file compressor: "lz4" (default),
	// "zstd", or "none".
	SpillCodec string

	// TempDir is the directory spilled runs are written to. A fresh
	// subdirectory is created under os.TempDir() if empty.
	TempDir string

	// ErrorLogPath, if set, enables the §6 validation error log.
	ErrorLogPath string

	// Logger receives structured diagnostics. Defaults to a no-op
	// logger, following izhukov1992-super/service/core.go's
	// conf.Logger = zap.NewNop() default.
	Logger *zap.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BufferMB <= 0 {
		out.BufferMB = 100
	}
	if out.MaxRecordsPerKey <= 0 {
		out.MaxRecordsPerKey = 200
	}
	if out.SpillCodec == "" {
		out.SpillCodec = record.CodecLZ4
	}
	if out.SourceID == "" {
		out.SourceID = uuid.NewString()
	}
	if out.SourceKey == "" {
		out.SourceKey = out.SourceID
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

func (c *Config) bufferBytes() int64 {
	return int64(c.BufferMB) * 1024 * 1024
}

func (c *Config) maxPerKey() int {
	if c.NoDedupe {
		return 0
	}
	return c.MaxRecordsPerKey
}
