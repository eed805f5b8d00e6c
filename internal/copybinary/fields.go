package copybinary

import (
	"encoding/binary"
	"io"
)

func writeI16(w io.Writer, v int16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	_, err := w.Write(buf[:])
	return err
}

func writeI32BE(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// writeField writes a field's length prefix and bytes.
func writeField(w io.Writer, data []byte) error {
	if err := writeI32BE(w, int32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// writeNull writes the -1 length sentinel for SQL NULL.
func writeNull(w io.Writer) error {
	return writeI32BE(w, -1)
}

func writeText(w io.Writer, s string) error {
	return writeField(w, []byte(s))
}

func writeTimestamp(w io.Writer, micros int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(micros))
	return writeField(w, buf[:])
}

// writeTextArray encodes a one-dimensional, non-null text[] per
// PostgreSQL's array binary format: ndim, hasnull, element type OID,
// then (dim, lbound) pairs, then each element length-prefixed.
func writeTextArray(w io.Writer, values []string) error {
	var header [20]byte
	binary.BigEndian.PutUint32(header[0:4], 1)          // ndim
	binary.BigEndian.PutUint32(header[4:8], 0)           // hasnull
	binary.BigEndian.PutUint32(header[8:12], textOID)    // elemtype
	binary.BigEndian.PutUint32(header[12:16], uint32(len(values))) // dim
	binary.BigEndian.PutUint32(header[16:20], 1)         // lbound

	size := len(header)
	for _, v := range values {
		size += 4 + len(v)
	}

	if err := writeI32BE(w, int32(size)); err != nil {
		return err
	}
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	for _, v := range values {
		if err := writeI32BE(w, int32(len(v))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, v); err != nil {
			return err
		}
	}
	return nil
}
