// Package errs defines the sentinel error kinds shared across flatsort's
// components, so callers can branch with errors.Is instead of matching
// strings.
package errs

import "errors"

var (
	// ErrIO covers filesystem operations that fail: missing input,
	// unwritable temp directory, a run file that vanishes mid-merge.
	ErrIO = errors.New("flatsort: io error")

	// ErrBadKey means a configured key column index does not exist in a
	// given row.
	ErrBadKey = errors.New("flatsort: bad key column index")

	// ErrCorruptRun means a spilled run file failed its framing or
	// hex-digest check during the k-way merge.
	ErrCorruptRun = errors.New("flatsort: corrupt run file")

	// ErrStateError means an operation was called while the Sorter was
	// in a state that does not permit it (e.g. AddRow after Sort).
	ErrStateError = errors.New("flatsort: invalid sorter state")

	// ErrInvalidInput means a CSV input could not be parsed, or was
	// empty/header-only where a non-empty input was required.
	ErrInvalidInput = errors.New("flatsort: invalid input")

	// ErrEncodeError means the COPY BINARY encoder could not proceed,
	// e.g. geo columns that do not name exactly two indices. A geo
	// index out of range for a row is not an error: that row's
	// geometry is written as NULL.
	ErrEncodeError = errors.New("flatsort: encode error")
)
