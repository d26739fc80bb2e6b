// Package vault encrypts blobs at rest with AES-GCM under a key stretched
// from a passphrase by PBKDF2. It wraps serialised PSK entries and counter
// state before they reach redis or disk; it has no bearing on the wire
// protocol.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	nonceSize  = 12
	keySize    = 32
	iterations = 210_000
)

var ErrVaultOpen = errors.New("vault: cannot open blob")

type (
	Vault struct {
		passphrase []byte
	}
)

func New(passphrase string) *Vault {
	return &Vault{passphrase: []byte(passphrase)}
}

func (v *Vault) key(salt []byte) []byte {
	return pbkdf2.Key(v.passphrase, salt, iterations, keySize, sha256.New)
}

// Seal encrypts plaintext as salt || nonce || ciphertext with a fresh salt
// and nonce per call.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	blob := make([]byte, saltSize+nonceSize, saltSize+nonceSize+len(plaintext)+16)
	if _, err := io.ReadFull(rand.Reader, blob[:saltSize+nonceSize]); err != nil {
		return nil, fmt.Errorf("vault: rand: %w", err)
	}

	aead, err := newAEAD(v.key(blob[:saltSize]))
	if err != nil {
		return nil, err
	}
	return aead.Seal(blob, blob[saltSize:saltSize+nonceSize], plaintext, nil), nil
}

// Open reverses Seal. A wrong passphrase, truncated blob, or tampered
// ciphertext all fail the same way.
func (v *Vault) Open(blob []byte) ([]byte, error) {
	if len(blob) < saltSize+nonceSize+16 {
		return nil, ErrVaultOpen
	}

	aead, err := newAEAD(v.key(blob[:saltSize]))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, blob[saltSize:saltSize+nonceSize], blob[saltSize+nonceSize:], nil)
	if err != nil {
		return nil, ErrVaultOpen
	}
	return plain, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return cipher.NewGCM(block)
}
