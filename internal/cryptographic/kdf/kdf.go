package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF fills buffer with HKDF-SHA256 output. Every derivation site passes a
// distinct (salt, info) pair for domain separation.
func HKDF(secret, salt, info, buffer []byte) (int, error) {
	h := hkdf.New(sha256.New, secret, salt, info)
	return io.ReadFull(h, buffer)
}

// Derive32 is the common case: a single 32-byte output.
func Derive32(secret, salt, info []byte) ([]byte, error) {
	out := make([]byte, 32)
	if _, err := HKDF(secret, salt, info, out); err != nil {
		return nil, err
	}
	return out, nil
}
