// Package hybrid implements the message encryption of both wire protocols:
// ephemeral ECDH alone (base) and ephemeral ECDH mixed with a ratcheted
// pre-shared key (PSK). Every envelope also carries the symmetric key
// encrypted to the sender, so a sender can read their own messages back off
// the ledger without storing plaintext.
package hybrid

import (
	"crypto/subtle"
	"errors"

	"github.com/CorvidLabs/algochat/internal/cryptographic/dh"
	"github.com/CorvidLabs/algochat/internal/cryptographic/encryption"
	"github.com/CorvidLabs/algochat/internal/cryptographic/kdf"
	"github.com/CorvidLabs/algochat/internal/protocol/envelope"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
)

var (
	// ErrDecryptFailed deliberately collapses every decrypt-side cause
	// (wrong key, wrong PSK, tampering) into one opaque kind.
	ErrDecryptFailed = errors.New("hybrid: decrypt failed")

	ErrInvalidKeyLength = errors.New("hybrid: message key must be 32 bytes")
)

// HKDF info prefixes. Exact ASCII literals; interoperability depends on them.
var (
	infoBase       = []byte("AlgoChatV1")
	infoPSK        = []byte("AlgoChatV1-PSK")
	infoBaseSender = []byte("AlgoChatV1-SenderKey")
	infoPSKSender  = []byte("AlgoChatV1-PSK-SenderKey")
)

// deriveSymKey computes the payload key. ss is consumed and wiped.
func deriveSymKey(ss, messageKey []byte, ephPub, senderPub, recipientPub [32]byte) ([]byte, error) {
	defer dh.Wipe(ss)

	prefix := infoBase
	ikm := ss
	if messageKey != nil {
		prefix = infoPSK
		ikm = make([]byte, 0, len(ss)+len(messageKey))
		ikm = append(ikm, ss...)
		ikm = append(ikm, messageKey...)
		defer dh.Wipe(ikm)
	}

	info := make([]byte, 0, len(prefix)+64)
	info = append(info, prefix...)
	info = append(info, senderPub[:]...)
	info = append(info, recipientPub[:]...)
	return kdf.Derive32(ikm, ephPub[:], info)
}

// deriveSenderKEK computes the key that wraps the payload key for the
// sender-recovery slot. ssSelf is consumed and wiped.
func deriveSenderKEK(ssSelf, messageKey []byte, ephPub, senderPub [32]byte) ([]byte, error) {
	defer dh.Wipe(ssSelf)

	prefix := infoBaseSender
	ikm := ssSelf
	if messageKey != nil {
		prefix = infoPSKSender
		ikm = make([]byte, 0, len(ssSelf)+len(messageKey))
		ikm = append(ikm, ssSelf...)
		ikm = append(ikm, messageKey...)
		defer dh.Wipe(ikm)
	}

	info := make([]byte, 0, len(prefix)+32)
	info = append(info, prefix...)
	info = append(info, senderPub[:]...)
	return kdf.Derive32(ikm, ephPub[:], info)
}

type sealed struct {
	ephPub     [32]byte
	nonce      [envelope.NonceSize]byte
	senderSlot [envelope.SenderKeySlotSize]byte
	ciphertext []byte
}

// seal runs the shared part of both encrypt paths. messageKey is nil for the
// base protocol and the per-counter key for PSK.
func seal(plaintext []byte, senderPub, recipientPub [32]byte, messageKey []byte) (*sealed, error) {
	eph, err := identity.NewEphemeralKeyPair()
	if err != nil {
		return nil, err
	}
	defer eph.Wipe()

	ssRecipient, err := dh.X25519SharedSecret(eph.Secret, recipientPub)
	if err != nil {
		return nil, err
	}

	sym, err := deriveSymKey(ssRecipient, messageKey, eph.Public, senderPub, recipientPub)
	if err != nil {
		return nil, err
	}
	defer dh.Wipe(sym)

	nonce, err := encryption.NewNonce()
	if err != nil {
		return nil, err
	}

	ciphertext, err := encryption.AEADEncrypt(sym, nonce[:], plaintext)
	if err != nil {
		return nil, err
	}

	ssSelf, err := dh.X25519SharedSecret(eph.Secret, senderPub)
	if err != nil {
		return nil, err
	}

	kek, err := deriveSenderKEK(ssSelf, messageKey, eph.Public, senderPub)
	if err != nil {
		return nil, err
	}
	defer dh.Wipe(kek)

	// Same nonce under a distinct key.
	slot, err := encryption.AEADEncrypt(kek, nonce[:], sym)
	if err != nil {
		return nil, err
	}

	out := &sealed{ephPub: eph.Public, nonce: nonce, ciphertext: ciphertext}
	copy(out.senderSlot[:], slot)
	return out, nil
}

// EncryptBase builds a base envelope for plaintext of at most
// envelope.MaxBasePlaintext bytes.
func EncryptBase(plaintext []byte, senderPub, recipientPub [32]byte) (*envelope.Base, error) {
	if len(plaintext) > envelope.MaxBasePlaintext {
		return nil, envelope.ErrPayloadTooLarge
	}
	s, err := seal(plaintext, senderPub, recipientPub, nil)
	if err != nil {
		return nil, err
	}
	return &envelope.Base{
		SenderPub:          senderPub,
		EphemeralPub:       s.ephPub,
		Nonce:              s.nonce,
		EncryptedSenderKey: s.senderSlot,
		Ciphertext:         s.ciphertext,
	}, nil
}

// EncryptPSK builds a PSK envelope. messageKey must already be derived for
// counter via the ratchet.
func EncryptPSK(plaintext []byte, senderPub, recipientPub [32]byte, messageKey []byte, counter uint32) (*envelope.PSK, error) {
	if len(messageKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	if len(plaintext) > envelope.MaxPSKPlaintext {
		return nil, envelope.ErrPayloadTooLarge
	}
	s, err := seal(plaintext, senderPub, recipientPub, messageKey)
	if err != nil {
		return nil, err
	}
	return &envelope.PSK{
		Counter:            counter,
		SenderPub:          senderPub,
		EphemeralPub:       s.ephPub,
		Nonce:              s.nonce,
		EncryptedSenderKey: s.senderSlot,
		Ciphertext:         s.ciphertext,
	}, nil
}

// open runs the shared part of both decrypt paths.
func open(senderPub, ephPub [32]byte, nonce [envelope.NonceSize]byte, senderSlot [envelope.SenderKeySlotSize]byte,
	ciphertext []byte, mySecret, myPub [32]byte, messageKey []byte) ([]byte, error) {

	if subtle.ConstantTimeCompare(senderPub[:], myPub[:]) == 1 {
		// Sender-recovery path: unwrap the payload key from the slot.
		ssSelf, err := dh.X25519SharedSecret(mySecret, ephPub)
		if err != nil {
			return nil, err
		}
		kek, err := deriveSenderKEK(ssSelf, messageKey, ephPub, senderPub)
		if err != nil {
			return nil, err
		}
		defer dh.Wipe(kek)

		sym, err := encryption.AEADDecrypt(kek, nonce[:], senderSlot[:])
		if err != nil {
			return nil, ErrDecryptFailed
		}
		defer dh.Wipe(sym)

		plain, err := encryption.AEADDecrypt(sym, nonce[:], ciphertext)
		if err != nil {
			return nil, ErrDecryptFailed
		}
		return plain, nil
	}

	ss, err := dh.X25519SharedSecret(mySecret, ephPub)
	if err != nil {
		return nil, err
	}
	sym, err := deriveSymKey(ss, messageKey, ephPub, senderPub, myPub)
	if err != nil {
		return nil, err
	}
	defer dh.Wipe(sym)

	plain, err := encryption.AEADDecrypt(sym, nonce[:], ciphertext)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

// DecryptBase opens a base envelope with the receiver's long-term keys. When
// the envelope was authored by the receiver the sender-recovery slot is used
// instead of the recipient path.
func DecryptBase(e *envelope.Base, mySecret, myPub [32]byte) (*Content, error) {
	plain, err := open(e.SenderPub, e.EphemeralPub, e.Nonce, e.EncryptedSenderKey,
		e.Ciphertext, mySecret, myPub, nil)
	if err != nil {
		return nil, err
	}
	return ParseContent(plain), nil
}

// DecryptPSK opens a PSK envelope. messageKey must be derived for the
// envelope's counter before calling; a key for any other counter fails as
// plain ErrDecryptFailed.
func DecryptPSK(e *envelope.PSK, mySecret, myPub [32]byte, messageKey []byte) (*Content, error) {
	if len(messageKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	plain, err := open(e.SenderPub, e.EphemeralPub, e.Nonce, e.EncryptedSenderKey,
		e.Ciphertext, mySecret, myPub, messageKey)
	if err != nil {
		return nil, err
	}
	return ParseContent(plain), nil
}
