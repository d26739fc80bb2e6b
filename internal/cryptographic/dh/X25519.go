package dh

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// An all-zero shared secret means the peer supplied a low-order point.
var ErrBadDHOutput = errors.New("dh: all-zero x25519 output")

// Generate a new X25519 key pair
func NewX25519KeyPair() (priv, pub [32]byte, err error) {
	_, err = rand.Read(priv[:])
	if err != nil {
		return priv, pub, fmt.Errorf("failed to generate private key: %w", err)
	}
	curve25519.ScalarBaseMult(&pub, &priv)
	return priv, pub, nil
}

// X25519PublicKey returns the public key for a (possibly derived) secret.
// Clamping per RFC 7748 happens inside the scalar multiplication.
func X25519PublicKey(priv [32]byte) (pub [32]byte) {
	curve25519.ScalarBaseMult(&pub, &priv)
	return pub
}

// Perform X25519 scalar multiplication: priv * pub.
// The contributory check rejects the all-zero output.
func X25519SharedSecret(priv, pub [32]byte) ([]byte, error) {
	ss, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return nil, ErrBadDHOutput
	}
	return ss, nil
}

// Wipe overwrites key material in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
