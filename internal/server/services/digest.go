package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// DocumentKey is the editor's document identity: lowercase hex SHA-256 of
// the bytes. Equal bytes always give the same key.
func DocumentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentKeyFrom streams r into the hash; it returns the same value as
// DocumentKey over the bytes read.
func DocumentKeyFrom(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
