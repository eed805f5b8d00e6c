package record

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names recognized by Config.SpillCodec / NewRunWriter.
const (
	CodecLZ4  = "lz4"
	CodecZstd = "zstd"
	CodecNone = "none"
)

// codec wraps a single third-party streaming compressor behind a
// uniform interface, the way compr.Compressor/Decompressor does for
// Sneller's block codecs — simplified here to whole-stream wrapping
// since both lz4 and zstd already expose io.Writer/io.Reader framing.
type codec interface {
	name() string
	newWriter(w io.Writer) (io.WriteCloser, error)
	newReader(r io.Reader) (io.ReadCloser, error)
}

type nopCloseReader struct{ io.Reader }

func (nopCloseReader) Close() error { return nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type noneCodec struct{}

func (noneCodec) name() string { return CodecNone }
func (noneCodec) newWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}
func (noneCodec) newReader(r io.Reader) (io.ReadCloser, error) {
	return nopCloseReader{r}, nil
}

type lz4Codec struct{}

func (lz4Codec) name() string { return CodecLZ4 }
func (lz4Codec) newWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
func (lz4Codec) newReader(r io.Reader) (io.ReadCloser, error) {
	return nopCloseReader{lz4.NewReader(r)}, nil
}

type zstdCodec struct{}

func (zstdCodec) name() string { return CodecZstd }
func (zstdCodec) newWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("record: zstd writer: %w", err)
	}
	return enc, nil
}
func (zstdCodec) newReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("record: zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}

func codecByName(name string) (codec, error) {
	switch name {
	case "", CodecLZ4:
		return lz4Codec{}, nil
	case CodecZstd:
		return zstdCodec{}, nil
	case CodecNone:
		return noneCodec{}, nil
	default:
		return nil, fmt.Errorf("record: unknown spill codec %q", name)
	}
}

// RunWriter writes a sequence of Records, sorted ascending by digest
// then descending by sequence, to a run file through a compression
// codec.
type RunWriter struct {
	f   io.Closer
	enc io.WriteCloser
	bw  *bufio.Writer
}

// NewRunWriter wraps f, an already-open run file, with the named codec
// ("lz4", "zstd", or "none"; "" defaults to lz4).
func NewRunWriter(f interface {
	io.Writer
	io.Closer
}, codecName string) (*RunWriter, error) {
	c, err := codecByName(codecName)
	if err != nil {
		return nil, err
	}
	enc, err := c.newWriter(f)
	if err != nil {
		return nil, err
	}
	return &RunWriter{f: f, enc: enc, bw: bufio.NewWriterSize(enc, 256*1024)}, nil
}

// Write appends one Record.
func (w *RunWriter) Write(rec Record) error {
	return Write(w.bw, rec)
}

// Close flushes and closes the codec writer and the underlying file.
func (w *RunWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.enc.Close()
		w.f.Close()
		return err
	}
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// RunReader reads back a run file written by RunWriter, in order.
type RunReader struct {
	f   io.Closer
	dec io.ReadCloser
	br  *bufio.Reader
}

// NewRunReader opens a run file for sequential reading.
func NewRunReader(f interface {
	io.Reader
	io.Closer
}, codecName string) (*RunReader, error) {
	c, err := codecByName(codecName)
	if err != nil {
		return nil, err
	}
	dec, err := c.newReader(f)
	if err != nil {
		return nil, err
	}
	return &RunReader{f: f, dec: dec, br: bufio.NewReaderSize(dec, 64*1024)}, nil
}

// Next reads the next Record, returning io.EOF when the run is
// exhausted.
func (r *RunReader) Next() (Record, error) {
	return Read(r.br)
}

// Close releases the codec reader and the underlying file.
func (r *RunReader) Close() error {
	r.dec.Close()
	return r.f.Close()
}
