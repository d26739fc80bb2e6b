// Package ratchet derives per-message keys from a long-lived pre-shared key
// and tracks the sliding-window counter state that goes with them.
package ratchet

import (
	"encoding/binary"
	"errors"

	"github.com/CorvidLabs/algochat/internal/cryptographic/kdf"
)

const (
	// SessionSize is the number of consecutive counters sharing one
	// session key. Leaking a session key exposes at most this many
	// messages; leaking a message key exposes one.
	SessionSize = 100

	// CounterWindow bounds how far a received counter may stray from the
	// high-water mark before it is rejected.
	CounterWindow = 200
)

var ErrInvalidKeyLength = errors.New("ratchet: psk must be 32 bytes")

var (
	sessionSalt  = []byte("AlgoChat-PSK-Session")
	positionSalt = []byte("AlgoChat-PSK-Position")
)

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// DeriveSessionKey derives the key covering counters
// [session*SessionSize, (session+1)*SessionSize).
func DeriveSessionKey(initialPSK []byte, session uint32) ([]byte, error) {
	if len(initialPSK) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return kdf.Derive32(initialPSK, sessionSalt, be32(session))
}

// DeriveMessageKey derives the key for a single counter via the
// (session, position) split. Deterministic: both ends and independent
// implementations must agree byte for byte.
func DeriveMessageKey(initialPSK []byte, counter uint32) ([]byte, error) {
	sessionKey, err := DeriveSessionKey(initialPSK, counter/SessionSize)
	if err != nil {
		return nil, err
	}
	msgKey, err := kdf.Derive32(sessionKey, positionSalt, be32(counter%SessionSize))
	for i := range sessionKey {
		sessionKey[i] = 0
	}
	if err != nil {
		return nil, err
	}
	return msgKey, nil
}
