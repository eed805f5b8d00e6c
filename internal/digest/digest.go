// Package digest computes the stable, content-addressed row identity
// that drives both ordering and dedup in the external merge sort.
package digest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/flatsort/flatsort/internal/errs"
)

// Len is the length in characters of a rendered digest.
const Len = 40

// sep is the byte inserted between joined key-column values. It is part
// of the public on-disk contract: changing it changes every digest ever
// produced. 0x00 was picked because no valid CSV field contains a NUL
// byte, so ["ab","c"] and ["a","bc"] never collide.
const sep = 0x00

// Of hashes the text of row[k] for each k in keyColumns, in order,
// joined by sep, and renders the SHA-1 sum as 40 lowercase hex
// characters.
func Of(row []string, keyColumns []int) (string, error) {
	h := sha1.New()
	for i, k := range keyColumns {
		if k < 0 || k >= len(row) {
			return "", fmt.Errorf("digest: column %d out of range for row of %d fields: %w", k, len(row), errs.ErrBadKey)
		}
		if i > 0 {
			h.Write([]byte{sep})
		}
		h.Write([]byte(row[k]))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s is a syntactically well-formed digest: 40
// lowercase hex characters. Used to reject corrupt run files early.
func Valid(s string) bool {
	if len(s) != Len {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
