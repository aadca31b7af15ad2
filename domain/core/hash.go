package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for report headers.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Fingerprint hashes named float columns bit-exactly. Two results with the
// same fingerprint were computed from identical encoded data.
func Fingerprint(names []string, columns [][]float64) Hash {
	size := 0
	for i, name := range names {
		size += len(name) + 1
		if i < len(columns) {
			size += 8 * len(columns[i])
		}
	}

	buf := make([]byte, 0, size)
	for i, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0)
		if i < len(columns) {
			for _, v := range columns[i] {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
			}
		}
	}
	return NewHash(buf)
}
