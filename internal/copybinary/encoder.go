// Package copybinary encodes sorted output as PostgreSQL's binary COPY
// stream (COPY ... FROM STDIN (FORMAT binary)) against the fixed
// 6-column schema in spec §4.7: source_key, digest, geometry, row_data,
// created_at, updated_at.
package copybinary

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/flatsort/flatsort/internal/errs"
)

var signature = []byte("PGCOPY\n\xff\r\n\x00")

// textOID is PostgreSQL's OID for the text type, used as the element
// type in the row_data text[] field.
const textOID = 25

// pgEpoch is the zero point for COPY BINARY timestamp fields.
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Encoder writes a COPY BINARY stream for a series of (digest, row)
// tuples sharing one source_key.
type Encoder struct {
	w             io.Writer
	sourceKey     string
	geoColumns    []int
	clock         func() time.Time
	headerWritten bool
	closed        bool
}

// NewEncoder builds an Encoder. geoColumns, if non-nil, must name
// exactly [lon_idx, lat_idx].
func NewEncoder(w io.Writer, sourceKey string, geoColumns []int) (*Encoder, error) {
	if geoColumns != nil && len(geoColumns) != 2 {
		return nil, fmt.Errorf("copybinary: geo_columns must have exactly 2 indices, got %d: %w", len(geoColumns), errs.ErrEncodeError)
	}
	return &Encoder{w: w, sourceKey: sourceKey, geoColumns: geoColumns, clock: time.Now}, nil
}

// WriteHeader writes the 19-byte COPY BINARY stream header. WriteRow
// calls it automatically if it hasn't run yet.
func (e *Encoder) WriteHeader() error {
	if e.headerWritten {
		return nil
	}
	if _, err := e.w.Write(signature); err != nil {
		return err
	}
	var tail [8]byte // flags(u32 BE=0) ext_len(u32 BE=0)
	if _, err := e.w.Write(tail[:]); err != nil {
		return err
	}
	e.headerWritten = true
	return nil
}

// WriteRow encodes one output tuple.
func (e *Encoder) WriteRow(digest string, row []string) error {
	if err := e.WriteHeader(); err != nil {
		return err
	}

	if err := writeI16(e.w, 6); err != nil {
		return err
	}
	if err := writeText(e.w, e.sourceKey); err != nil {
		return err
	}
	if err := writeText(e.w, digest); err != nil {
		return err
	}
	if err := e.writeGeometry(row); err != nil {
		return err
	}
	if err := writeTextArray(e.w, row); err != nil {
		return err
	}

	createdAt := micros(e.clock())
	if err := writeTimestamp(e.w, createdAt); err != nil {
		return err
	}
	if err := writeTimestamp(e.w, createdAt); err != nil {
		return err
	}
	return nil
}

// Close writes the -1 field-count trailer. It does not close the
// underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	if err := e.WriteHeader(); err != nil {
		return err
	}
	e.closed = true
	return writeI16(e.w, -1)
}

func (e *Encoder) writeGeometry(row []string) error {
	if e.geoColumns == nil {
		return writeNull(e.w)
	}
	lonIdx, latIdx := e.geoColumns[0], e.geoColumns[1]
	if lonIdx < 0 || lonIdx >= len(row) || latIdx < 0 || latIdx >= len(row) {
		return writeNull(e.w)
	}
	lon, errLon := strconv.ParseFloat(row[lonIdx], 64)
	lat, errLat := strconv.ParseFloat(row[latIdx], 64)
	if errLon != nil || errLat != nil {
		return writeNull(e.w)
	}

	var ewkb [25]byte
	ewkb[0] = 0x01 // little-endian
	binary.LittleEndian.PutUint32(ewkb[1:5], 0x20000001)
	binary.LittleEndian.PutUint32(ewkb[5:9], 4326)
	binary.LittleEndian.PutUint64(ewkb[9:17], math.Float64bits(lon))
	binary.LittleEndian.PutUint64(ewkb[17:25], math.Float64bits(lat))
	return writeField(e.w, ewkb[:])
}

func micros(t time.Time) int64 {
	return t.UTC().Sub(pgEpoch).Microseconds()
}
