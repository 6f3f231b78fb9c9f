// Package checksum fingerprints note content so the ledger can tell
// whether a file on disk still matches what a pass wrote.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum for rendered note text.
func SumString(s string) string {
	return Sum([]byte(s))
}

// Matches reports whether data hashes to sum.
func Matches(data []byte, sum string) bool {
	return sum != "" && Sum(data) == sum
}
