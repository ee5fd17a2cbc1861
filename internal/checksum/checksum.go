// Package checksum computes the content digests used as note ETags.
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

// Content returns the digest of a note's stored content.
func Content(content string) string {
	return Sum([]byte(content))
}

// Match reports whether ifMatch names the digest of content. An empty
// ifMatch always matches.
func Match(ifMatch, content string) bool {
	return ifMatch == "" || ifMatch == Content(content)
}
