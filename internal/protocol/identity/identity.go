package identity

import (
	"errors"

	"github.com/CorvidLabs/algochat/internal/cryptographic/dh"
	"github.com/CorvidLabs/algochat/internal/cryptographic/kdf"
)

const SeedSize = 32

var ErrInvalidKeyLength = errors.New("identity: seed must be 32 bytes")

var (
	seedSalt = []byte("AlgoChat-v1-encryption")
	seedInfo = []byte("x25519-key")
)

type (
	// KeyPair is a long-term or ephemeral X25519 key pair.
	KeyPair struct {
		Secret [32]byte
		Public [32]byte
	}
)

// DeriveKeyPair derives the long-term encryption key pair from a 32-byte
// account seed. The derivation binds the encryption identity to the signing
// identity without reusing the signing key for Diffie-Hellman.
func DeriveKeyPair(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, ErrInvalidKeyLength
	}

	secret, err := kdf.Derive32(seed, seedSalt, seedInfo)
	if err != nil {
		return nil, err
	}

	kp := &KeyPair{}
	copy(kp.Secret[:], secret)
	kp.Public = dh.X25519PublicKey(kp.Secret)
	dh.Wipe(secret)
	return kp, nil
}

// NewEphemeralKeyPair generates a one-use pair from the CSPRNG. The caller
// must wipe the secret once the shared secrets are derived.
func NewEphemeralKeyPair() (*KeyPair, error) {
	priv, pub, err := dh.NewX25519KeyPair()
	if err != nil {
		return nil, err
	}
	return &KeyPair{Secret: priv, Public: pub}, nil
}

// Wipe zeroises the secret half.
func (kp *KeyPair) Wipe() {
	dh.Wipe(kp.Secret[:])
}
