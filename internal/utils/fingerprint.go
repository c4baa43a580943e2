package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short BLAKE2b-256 digest of an opaque key for logs.
// An empty key yields "".
func Fingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := blake2b.Sum256(key)
	return hex.EncodeToString(sum[:8])
}
